package repository

import (
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store groups the repositories of one backend.
type Store struct {
	Users         UserRepository
	Organizations OrganizationRepository
	Members       OrganizationMemberRepository
	Projects      ProjectRepository
	Tasks         TaskRepository
	Invitations   InvitationRepository
}

func NewInMemoryStore() *Store {
	return &Store{
		Users:         NewInMemoryUserRepository(),
		Organizations: NewInMemoryOrganizationRepository(),
		Members:       NewInMemoryOrganizationMemberRepository(),
		Projects:      NewInMemoryProjectRepository(),
		Tasks:         NewInMemoryTaskRepository(),
		Invitations:   NewInMemoryInvitationRepository(),
	}
}

func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:         NewMongoUserRepository(db),
		Organizations: NewMongoOrganizationRepository(db),
		Members:       NewMongoOrganizationMemberRepository(db),
		Projects:      NewMongoProjectRepository(db),
		Tasks:         NewMongoTaskRepository(db),
		Invitations:   NewMongoInvitationRepository(db),
	}
}

func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Users:         NewPostgresUserRepository(db),
		Organizations: NewPostgresOrganizationRepository(db),
		Members:       NewPostgresOrganizationMemberRepository(db),
		Projects:      NewPostgresProjectRepository(db),
		Tasks:         NewPostgresTaskRepository(db),
		Invitations:   NewPostgresInvitationRepository(db),
	}
}
