package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

type Repositories struct {
	Ideas         ports.IdeaRepository
	Contributions ports.ContributionRepository
	Builds        ports.BuildRepository
	Claims        ports.ClaimLedgerRepository
	Principals    ports.PrincipalRepository
	Reports       ports.ReportRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Ideas:         &ideaRepository{db: db},
		Contributions: &contributionRepository{db: db},
		Builds:        &buildRepository{db: db},
		Claims:        &claimLedgerRepository{db: db},
		Principals:    &principalRepository{db: db},
		Reports:       &reportRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
