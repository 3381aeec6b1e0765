package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

const collectionAccounts = "accounts"

var _ ports.AccountRepository = (*AccountRepository)(nil)

type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID           string   `bson:"_id"`
	Role         string   `bson:"role"`
	Email        string   `bson:"email"`
	DisplayName  string   `bson:"display_name,omitempty"`
	PasswordHash string   `bson:"password_hash"`
	Verification string   `bson:"verification_status,omitempty"`
	Documents    []string `bson:"documents,omitempty"`
	RejectReason string   `bson:"reject_reason,omitempty"`
	RegisteredAt int64    `bson:"registered_at"`
	UpdatedAt    int64    `bson:"updated_at"`
}

func toDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:           a.ID,
		Role:         a.Role.String(),
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		Verification: string(a.Verification),
		Documents:    a.Documents,
		RejectReason: a.RejectReason,
		RegisteredAt: a.RegisteredAt.UnixMilli(),
		UpdatedAt:    a.UpdatedAt.UnixMilli(),
	}
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		Role:         domain.Role(d.Role),
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		Verification: domain.VerificationState(d.Verification),
		Documents:    d.Documents,
		RejectReason: d.RejectReason,
		RegisteredAt: millisToTime(d.RegisteredAt),
		UpdatedAt:    millisToTime(d.UpdatedAt),
	}
}

// Create inserts a new account. Email is unique per role.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDoc(a)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, role domain.Role, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"role": role.String(), "email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// UpdateVerification applies mutate to the stored account and writes it
// back only if the stored state still equals from.
func (r *AccountRepository) UpdateVerification(
	ctx context.Context,
	id string,
	from, to domain.VerificationState,
	mutate func(*domain.Account),
) (*domain.Account, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Verification != from {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, current.Verification, to)
	}

	next := *current
	if mutate != nil {
		mutate(&next)
	}
	next.Verification = to

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "verification_status": string(from)}
	update := bson.M{"$set": bson.M{
		"verification_status": string(to),
		"documents":           next.Documents,
		"reject_reason":       next.RejectReason,
		"updated_at":          next.UpdatedAt.UnixMilli(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lost the race to a concurrent decision.
			return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, from, to)
		}
		return nil, fmt.Errorf("update verification: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique (role, email) index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
