package model

import (
	"userhub/internal/domain/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToUserDomain maps a table row to the domain entity.
func (m *UserModel) ToUserDomain() *entity.User {
	return &entity.User{
		ID:           m.ID.String(),
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.Password,
		Age:          copyAge(m.Age),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromUserDomain maps a domain entity to a table row. An unparsable ID maps to the zero UUID.
func FromUserDomain(u *entity.User) *UserModel {
	id, _ := uuid.Parse(u.ID)

	return &UserModel{
		ID:        id,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Age:       copyAge(u.Age),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToUserDomain maps a stored document to the domain entity.
func (d *UserDocument) ToUserDomain() *entity.User {
	return &entity.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Age:          copyAge(d.Age),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// FromUserDomainDocument maps a domain entity to a document. An unparsable ID is left for the server to assign.
func FromUserDomainDocument(u *entity.User) *UserDocument {
	id, _ := primitive.ObjectIDFromHex(u.ID)

	return &UserDocument{
		ID:        id,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Age:       copyAge(u.Age),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func copyAge(age *int) *int {
	if age == nil {
		return nil
	}
	v := *age

	return &v
}
