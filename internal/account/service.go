package account

import (
	"context"
	"log"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"hosteldesk/internal/apperr"
)

var (
	deptRe   = regexp.MustCompile(`^[A-Z]{2,5}-[A-Z]$`)
	mobileRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, a Account) (Account, error)
	Get(ctx context.Context, id string) (*Account, error)
	GetByRegNo(ctx context.Context, regNo string) (*Account, error)
	ListStudents(ctx context.Context) ([]Account, error)
	UpdateRoom(ctx context.Context, id, roomNo string) error
}

// Service implements registration and login on top of a Store.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterInput is the student self-registration payload.
type RegisterInput struct {
	RegNo         string `json:"regNo" binding:"required"`
	Name          string `json:"name" binding:"required"`
	ParentMobile  string `json:"parentMobile" binding:"required"`
	StudentMobile string `json:"studentMobile" binding:"required"`
	RoomNo        string `json:"roomNo" binding:"required"`
	Floor         string `json:"floor" binding:"required"`
	Warden        string `json:"warden" binding:"required"`
	Dept          string `json:"dept" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

// RegisterStudent validates and creates a student account. Registration
// numbers are stored upper-cased so lookups are case-insensitive.
func (s *Service) RegisterStudent(ctx context.Context, in RegisterInput) (Account, error) {
	if !deptRe.MatchString(in.Dept) {
		return Account{}, apperr.Validation("dept must be like CSE-D")
	}
	if !mobileRe.MatchString(in.ParentMobile) || !mobileRe.MatchString(in.StudentMobile) {
		return Account{}, apperr.Validation("mobile must be 10 digits")
	}
	regNo := strings.ToUpper(strings.TrimSpace(in.RegNo))

	existing, err := s.store.GetByRegNo(ctx, regNo)
	if err != nil {
		return Account{}, err
	}
	if existing != nil {
		return Account{}, apperr.Conflict("already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	return s.store.Insert(ctx, Account{
		RegNo:         regNo,
		Name:          in.Name,
		ParentMobile:  in.ParentMobile,
		StudentMobile: in.StudentMobile,
		RoomNo:        strings.TrimSpace(in.RoomNo),
		Floor:         in.Floor,
		Warden:        in.Warden,
		Dept:          in.Dept,
		PasswordHash:  string(hash),
		Role:          RoleStudent,
	})
}

// Authenticate checks credentials and returns the matching account.
// Students log in with their registration number, wardens with their email.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (Account, error) {
	a, err := s.store.GetByRegNo(ctx, strings.ToUpper(strings.TrimSpace(identifier)))
	if err != nil {
		return Account{}, err
	}
	if a == nil {
		// warden identifiers keep their original case
		a, err = s.store.GetByRegNo(ctx, strings.TrimSpace(identifier))
		if err != nil {
			return Account{}, err
		}
	}
	if a == nil {
		return Account{}, apperr.Auth("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return Account{}, apperr.Auth("invalid credentials")
	}
	return *a, nil
}

// Get returns the account for id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if a == nil {
		return Account{}, apperr.NotFound("account not found")
	}
	return *a, nil
}

// ListStudents returns all student accounts.
func (s *Service) ListStudents(ctx context.Context) ([]Account, error) {
	return s.store.ListStudents(ctx)
}

// SeedWarden ensures a warden account exists for the given email. Wardens
// have no self-registration path; deployments seed one from the environment.
func (s *Service) SeedWarden(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.store.GetByRegNo(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.store.Insert(ctx, Account{
		RegNo:        email,
		Name:         "Warden",
		PasswordHash: string(hash),
		Role:         RoleWarden,
	})
	if err == nil {
		log.Printf("seeded warden account %s", email)
	}
	return err
}
