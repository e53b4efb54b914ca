// Package stores holds the persistence layer. Each store owns exactly one
// entity and never reaches across to another; everything cross-entity lives
// in the fulfillment package.
package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/electromart/electromart-api/apperrors"
	"github.com/electromart/electromart-api/models"
)

type DeliveryStore struct {
	db *gorm.DB
}

func NewDeliveryStore(db *gorm.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

type CreateDeliveryParams struct {
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	StreetAddress  string `json:"streetAddress"`
	StreetAddress2 string `json:"streetAddress2"`
	City           string `json:"city"`
	PostalCode     string `json:"postalCode"`
	ContactNumber  string `json:"contactNumber"`
	Email          string `json:"email"`
}

func (p CreateDeliveryParams) validate() error {
	switch {
	case p.UserID == "":
		return apperrors.Validationf("userId is required")
	case p.FirstName == "":
		return apperrors.Validationf("firstName is required")
	case p.LastName == "":
		return apperrors.Validationf("lastName is required")
	case p.StreetAddress == "":
		return apperrors.Validationf("streetAddress is required")
	case p.City == "":
		return apperrors.Validationf("city is required")
	case p.PostalCode == "":
		return apperrors.Validationf("postalCode is required")
	case p.ContactNumber == "":
		return apperrors.Validationf("contactNumber is required")
	case p.Email == "":
		return apperrors.Validationf("email is required")
	}
	return nil
}

func (s *DeliveryStore) Create(ctx context.Context, params CreateDeliveryParams) (models.Delivery, error) {
	if err := params.validate(); err != nil {
		return models.Delivery{}, err
	}

	delivery := models.Delivery{
		UserID:         params.UserID,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		StreetAddress:  params.StreetAddress,
		StreetAddress2: params.StreetAddress2,
		City:           params.City,
		PostalCode:     params.PostalCode,
		ContactNumber:  params.ContactNumber,
		Email:          params.Email,
	}
	if err := s.db.WithContext(ctx).Create(&delivery).Error; err != nil {
		return models.Delivery{}, apperrors.Wrap(apperrors.Serverf("error creating delivery record"), err)
	}
	return delivery, nil
}

func (s *DeliveryStore) Get(ctx context.Context, id uint) (models.Delivery, error) {
	var delivery models.Delivery
	err := s.db.WithContext(ctx).First(&delivery, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Delivery{}, apperrors.NotFoundf("delivery not found")
		}
		return models.Delivery{}, apperrors.Wrap(apperrors.Serverf("error fetching delivery"), err)
	}
	return delivery, nil
}

func (s *DeliveryStore) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Delivery{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.Serverf("error checking delivery"), err)
	}
	return count > 0, nil
}

func (s *DeliveryStore) GetByUser(ctx context.Context, userID string) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&deliveries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching delivery details"), err)
	}
	return deliveries, nil
}

func (s *DeliveryStore) GetAll(ctx context.Context) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Find(&deliveries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Serverf("error fetching all delivery details"), err)
	}
	return deliveries, nil
}

type UpdateDeliveryParams struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	StreetAddress  *string `json:"streetAddress"`
	StreetAddress2 *string `json:"streetAddress2"`
	City           *string `json:"city"`
	PostalCode     *string `json:"postalCode"`
	ContactNumber  *string `json:"contactNumber"`
	Email          *string `json:"email"`
}

// Update applies only the supplied fields, re-validated with the Create
// rules (streetAddress2 is the only field allowed to become empty).
func (s *DeliveryStore) Update(ctx context.Context, id uint, params UpdateDeliveryParams) (models.Delivery, error) {
	delivery, err := s.Get(ctx, id)
	if err != nil {
		return models.Delivery{}, err
	}

	set := func(dst *string, src *string, field string) error {
		if src == nil {
			return nil
		}
		if *src == "" && field != "streetAddress2" {
			return apperrors.Validationf("%s is required", field)
		}
		*dst = *src
		return nil
	}

	fields := []struct {
		dst   *string
		src   *string
		field string
	}{
		{&delivery.FirstName, params.FirstName, "firstName"},
		{&delivery.LastName, params.LastName, "lastName"},
		{&delivery.StreetAddress, params.StreetAddress, "streetAddress"},
		{&delivery.StreetAddress2, params.StreetAddress2, "streetAddress2"},
		{&delivery.City, params.City, "city"},
		{&delivery.PostalCode, params.PostalCode, "postalCode"},
		{&delivery.ContactNumber, params.ContactNumber, "contactNumber"},
		{&delivery.Email, params.Email, "email"},
	}
	for _, f := range fields {
		if err := set(f.dst, f.src, f.field); err != nil {
			return models.Delivery{}, err
		}
	}

	if err := s.db.WithContext(ctx).Save(&delivery).Error; err != nil {
		return models.Delivery{}, apperrors.Wrap(apperrors.Serverf("error updating delivery"), err)
	}
	return delivery, nil
}

func (s *DeliveryStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Delivery{}, id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.Serverf("error deleting delivery"), result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("delivery not found")
	}
	return nil
}
