package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/bataanhss/websystem/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) QueryBeneficiaries(ctx context.Context, municipality, schoolYear string) ([]school.Beneficiary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]school.Beneficiary, 0)
	for _, row := range repo.db.beneficiaries {
		if row.Municipality == municipality && row.SchoolYear == schoolYear {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].KitchenName != rows[j].KitchenName {
			return rows[i].KitchenName < rows[j].KitchenName
		}
		return rows[i].SchoolName < rows[j].SchoolName
	})
	return rows, nil
}

func (repo *schoolRepository) CreateBeneficiaries(ctx context.Context, rows []school.Beneficiary) ([]school.Beneficiary, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	created := make([]school.Beneficiary, 0, len(rows))
	for _, row := range rows {
		row.ID = repo.db.nextID()
		row.CreatedAt = now
		row.UpdatedAt = now
		repo.db.beneficiaries[row.ID] = &row
		created = append(created, row)
	}
	return created, nil
}

func (repo *schoolRepository) GetBeneficiaryByID(ctx context.Context, id string) (school.Beneficiary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.beneficiaries[id]; ok {
		return *row, nil
	}
	return school.Beneficiary{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateBeneficiary(ctx context.Context, row school.Beneficiary) (school.Beneficiary, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.beneficiaries[row.ID]
	if !ok {
		return school.Beneficiary{}, school.ErrNotFound
	}
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = time.Now().UTC()
	repo.db.beneficiaries[row.ID] = &row
	return row, nil
}

func (repo *schoolRepository) DeleteBeneficiary(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.beneficiaries[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.beneficiaries, id)
	return nil
}

func (repo *schoolRepository) QueryDetails(ctx context.Context, municipality, schoolYear string) ([]school.Details, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]school.Details, 0)
	for _, row := range repo.db.schoolDetails {
		if row.Municipality == municipality && row.SchoolYear == schoolYear {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CompleteName < rows[j].CompleteName })
	return rows, nil
}

func (repo *schoolRepository) CreateDetails(ctx context.Context, row school.Details) (school.Details, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	row.ID = repo.db.nextID()
	row.CreatedAt = now
	row.UpdatedAt = now
	repo.db.schoolDetails[row.ID] = &row
	return row, nil
}

func (repo *schoolRepository) GetDetailsByID(ctx context.Context, id string) (school.Details, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.schoolDetails[id]; ok {
		return *row, nil
	}
	return school.Details{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateDetails(ctx context.Context, row school.Details) (school.Details, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.schoolDetails[row.ID]
	if !ok {
		return school.Details{}, school.ErrNotFound
	}
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = time.Now().UTC()
	repo.db.schoolDetails[row.ID] = &row
	return row, nil
}

func (repo *schoolRepository) DeleteDetails(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schoolDetails[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.schoolDetails, id)
	return nil
}
