package crm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"gorm.io/gorm"
)

// ContactModel maps the CRM-owned contacts table. The engine reads it and
// never migrates or writes it.
type ContactModel struct {
	ID           string   `gorm:"type:uuid;primaryKey"`
	FirstName    string   `gorm:"type:varchar(120)"`
	LastName     string   `gorm:"type:varchar(120)"`
	Email        string   `gorm:"type:varchar(255)"`
	Phone        string   `gorm:"type:varchar(40)"`
	Company      string   `gorm:"type:varchar(255)"`
	Stage        int      `gorm:"not null;default:1"`
	Roles        []string `gorm:"type:jsonb;serializer:json"`
	Persona      string   `gorm:"type:varchar(60)"`
	BusinessType string   `gorm:"type:varchar(60)"`
}

func (ContactModel) TableName() string { return "contacts" }

// QuoteModel maps the CRM-owned quotes table.
type QuoteModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ClientEmail string `gorm:"type:varchar(255)"`
	Cancelled   bool   `gorm:"not null;default:false"`
}

func (QuoteModel) TableName() string { return "quotes" }

// WebinarModel maps the CRM-owned webinars table.
type WebinarModel struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"type:varchar(255)"`
	StartsAt         time.Time `gorm:"type:timestamptz"`
	TargetPersonas   []string  `gorm:"type:jsonb;serializer:json"`
	RegistrantEmails []string  `gorm:"type:jsonb;serializer:json"`
}

func (WebinarModel) TableName() string { return "webinars" }

// CaseModel maps the CRM-owned coaching cases table.
type CaseModel struct {
	ID               string   `gorm:"type:uuid;primaryKey"`
	Name             string   `gorm:"type:varchar(255)"`
	StageCode        string   `gorm:"type:varchar(40)"`
	MemberContactIDs []string `gorm:"type:jsonb;serializer:json"`
}

func (CaseModel) TableName() string { return "coaching_cases" }

// GormStore implements the CRM collaborator ports against the shared CRM
// Postgres database.
type GormStore struct {
	db *gorm.DB
}

var (
	_ ContactStore = (*GormStore)(nil)
	_ QuoteStore   = (*GormStore)(nil)
	_ WebinarStore = (*GormStore)(nil)
	_ CaseStore    = (*GormStore)(nil)
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListByStageRoles(ctx context.Context, stages []int, roles []string, limit int) ([]Contact, error) {
	query := s.db.WithContext(ctx).Model(&ContactModel{})
	if len(stages) > 0 {
		query = query.Where("stage IN ?", stages)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ContactModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(models))
	for i := range models {
		contact := contactModelToDomain(&models[i])
		// Role membership is a jsonb array; filtering in Go keeps the query
		// portable and the role match case-insensitive.
		if !contact.HasAnyRole(roles) {
			continue
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

func (s *GormStore) GetByIDs(ctx context.Context, ids []string) (map[string]Contact, error) {
	result := make(map[string]Contact, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []ContactModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}

	for i := range models {
		contact := contactModelToDomain(&models[i])
		result[contact.ID] = contact
	}

	return result, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Contact, error) {
	var model ContactModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	contact := contactModelToDomain(&model)
	return &contact, nil
}

func (s *GormStore) ActiveQuoteEmails(ctx context.Context) (map[string]struct{}, error) {
	var emails []string
	err := s.db.WithContext(ctx).
		Model(&QuoteModel{}).
		Where("cancelled = ?", false).
		Pluck("client_email", &emails).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}

	return set, nil
}

func (s *GormStore) ListUpcoming(ctx context.Context, now time.Time) ([]Webinar, error) {
	var models []WebinarModel
	err := s.db.WithContext(ctx).
		Where("starts_at > ?", now).
		Order("starts_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	webinars := make([]Webinar, 0, len(models))
	for i := range models {
		m := &models[i]
		webinars = append(webinars, Webinar{
			ID:               m.ID,
			Name:             m.Name,
			StartsAt:         m.StartsAt,
			TargetPersonas:   m.TargetPersonas,
			RegistrantEmails: m.RegistrantEmails,
		})
	}

	return webinars, nil
}

func (s *GormStore) ListByStageCodes(ctx context.Context, codes []string) ([]CoachingCase, error) {
	query := s.db.WithContext(ctx).Model(&CaseModel{})
	if len(codes) > 0 {
		query = query.Where("stage_code IN ?", codes)
	}

	var models []CaseModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	cases := make([]CoachingCase, 0, len(models))
	for i := range models {
		m := &models[i]
		cases = append(cases, CoachingCase{
			ID:               m.ID,
			Name:             m.Name,
			StageCode:        m.StageCode,
			MemberContactIDs: m.MemberContactIDs,
		})
	}

	return cases, nil
}

func contactModelToDomain(m *ContactModel) Contact {
	return Contact{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		Company:      m.Company,
		Stage:        m.Stage,
		Roles:        m.Roles,
		Persona:      m.Persona,
		BusinessType: m.BusinessType,
	}
}
