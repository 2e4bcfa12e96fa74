package service

import (
	"context"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListAdmins returns every user with the ADMIN role, reduced to display fields.
func (s *UserService) ListAdmins(ctx context.Context) ([]models.AdminSummary, error) {
	users, err := s.userRepo.FindByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	admins := make([]models.AdminSummary, 0, len(users))
	for _, u := range users {
		admins = append(admins, models.AdminSummary{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
	}
	return admins, nil
}
