package calendar

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gofocus/internal/calendar/inbound"
	"github.com/shandysiswandi/gofocus/internal/calendar/outbound/db"
	"github.com/shandysiswandi/gofocus/internal/calendar/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/clock"
	"github.com/shandysiswandi/gofocus/internal/pkg/config"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/shandysiswandi/gofocus/internal/pkg/uid"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Validator:  dep.Validator,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
