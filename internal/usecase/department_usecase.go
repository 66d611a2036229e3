package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"bamazon/internal/domain"

	"github.com/sirupsen/logrus"
)

const MaxDepartmentNameLength = 100

type DepartmentUseCase interface {
	RegisterDepartment(ctx context.Context, name string, overheadCost float64) (domain.RegistrationOutcome, error)
	DepartmentReport(ctx context.Context) ([]domain.DepartmentProfitRow, error)
	ListDepartmentNames(ctx context.Context) ([]string, error)
}

type departmentUseCase struct {
	store domain.CatalogStore
	log   *logrus.Logger
}

func NewDepartmentUseCase(store domain.CatalogStore, logger *logrus.Logger) DepartmentUseCase {
	return &departmentUseCase{
		store: store,
		log:   logger,
	}
}

func invalidRegistration(reason string) (domain.RegistrationOutcome, error) {
	err := fmt.Errorf("%w: %s", domain.ErrInvalidInput, reason)
	return domain.RegistrationOutcome{
		Status: domain.RegistrationInvalidInput,
		Reason: reason,
		Err:    err,
	}, err
}

// RegisterDepartment validates and inserts a department. Malformed input is
// reported both as an InvalidInput outcome and as an error wrapping
// domain.ErrInvalidInput; every other rejection is an outcome with a nil error.
func (uc *departmentUseCase) RegisterDepartment(ctx context.Context, name string, overheadCost float64) (domain.RegistrationOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		uc.log.Warn("Use Case: Attempted to register department with empty name")
		return invalidRegistration("department name cannot be empty")
	}
	if n := utf8.RuneCountInString(name); n > MaxDepartmentNameLength {
		uc.log.Warnf("Use Case: Department name too long (%d characters)", n)
		return invalidRegistration(fmt.Sprintf("department name cannot exceed %d characters", MaxDepartmentNameLength))
	}
	cost, ok := domain.OverheadFromFloat(overheadCost)
	if !ok {
		uc.log.Warnf("Use Case: Invalid overhead cost for department '%s': %v", name, overheadCost)
		return invalidRegistration("overhead cost must be a finite number between 0 and 9007199254740991")
	}

	existing, err := uc.store.ListDepartmentNames(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to read department names: %v", err)
		return domain.RegistrationOutcome{Status: domain.RegistrationStoreUnavailable, Err: err}, nil
	}
	for _, existingName := range existing {
		if existingName == name {
			uc.log.Infof("Use Case: Department '%s' already exists", name)
			return domain.RegistrationOutcome{
				Status: domain.RegistrationDuplicateName,
				Reason: fmt.Sprintf("department '%s' already exists", name),
			}, nil
		}
	}

	result, err := uc.store.InsertDepartment(ctx, name, cost)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to insert department '%s': %v", name, err)
		return domain.RegistrationOutcome{Status: domain.RegistrationStoreUnavailable, Err: err}, nil
	}
	if !result.Applied {
		uc.log.Warnf("Use Case: Department '%s' was registered concurrently", name)
		return domain.RegistrationOutcome{
			Status: domain.RegistrationRaceLost,
			Reason: fmt.Sprintf("department '%s' was added by another request", name),
		}, nil
	}

	dept := result.Department
	uc.log.Infof("Use Case: Department '%s' registered with ID %d", dept.Name, dept.ID)
	return domain.RegistrationOutcome{Status: domain.RegistrationSuccess, Department: &dept}, nil
}

func (uc *departmentUseCase) DepartmentReport(ctx context.Context) ([]domain.DepartmentProfitRow, error) {
	report, err := uc.store.AggregateDepartmentProfit(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to aggregate department profit: %v", err)
		return nil, err
	}
	uc.log.Infof("Use Case: Department report built with %d rows", len(report))
	return report, nil
}

func (uc *departmentUseCase) ListDepartmentNames(ctx context.Context) ([]string, error) {
	names, err := uc.store.ListDepartmentNames(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list departments: %v", err)
		return nil, err
	}
	return names, nil
}
