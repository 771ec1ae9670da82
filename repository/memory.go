package repository

import (
	"context"
	"sync"
	"time"

	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memTable is an insertion ordered, mutex guarded document table backing the
// in-memory repositories used for local runs (DATABASE_URL=memory://) and
// tests.
type memTable[T any] struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	rows  map[primitive.ObjectID]T
}

func newMemTable[T any]() *memTable[T] {
	return &memTable[T]{rows: make(map[primitive.ObjectID]T)}
}

func (t *memTable[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *memTable[T]) get(id primitive.ObjectID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

func (t *memTable[T]) find(match func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		if v := t.rows[id]; match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// insert stores v under id unless conflicts reports a clash with an existing
// row. The check and the write happen under one lock.
func (t *memTable[T]) insert(id primitive.ObjectID, v T, conflicts func(T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conflicts != nil {
		for _, row := range t.rows {
			if conflicts(row) {
				return ErrDuplicateKey
			}
		}
	}
	t.rows[id] = v
	t.order = append(t.order, id)
	return nil
}

func (t *memTable[T]) update(id primitive.ObjectID, conflicts func(primitive.ObjectID, T) bool, apply func(*T)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	apply(&v)
	if conflicts != nil {
		for other, row := range t.rows {
			if other != id && conflicts(other, row) {
				var zero T
				return zero, ErrDuplicateKey
			}
		}
	}
	t.rows[id] = v
	return v, nil
}

func (t *memTable[T]) remove(id primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryCategoryRepository enforces a unique category_name only when unique
// is set, mirroring a collection with or without the index.
type MemoryCategoryRepository struct {
	table  *memTable[models.Category]
	unique bool
}

func NewMemoryCategoryRepository(unique bool) *MemoryCategoryRepository {
	return &MemoryCategoryRepository{table: newMemTable[models.Category](), unique: unique}
}

func (r *MemoryCategoryRepository) FindAll(context.Context) ([]models.Category, error) {
	return r.table.all(), nil
}

func (r *MemoryCategoryRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := r.table.find(func(c models.Category) bool { return c.Name == name })
	return ok, nil
}

// Count returns how many categories are named name.
func (r *MemoryCategoryRepository) Count(name string) int {
	n := 0
	for _, c := range r.table.all() {
		if c.Name == name {
			n++
		}
	}
	return n
}

func (r *MemoryCategoryRepository) Create(_ context.Context, category *models.Category) error {
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	var conflicts func(models.Category) bool
	if r.unique {
		conflicts = func(c models.Category) bool { return c.Name == category.Name }
	}
	return r.table.insert(category.ID, *category, conflicts)
}

func (r *MemoryCategoryRepository) Update(_ context.Context, id primitive.ObjectID, category *models.Category) error {
	var conflicts func(primitive.ObjectID, models.Category) bool
	if r.unique {
		conflicts = func(_ primitive.ObjectID, c models.Category) bool { return c.Name == category.Name }
	}
	_, err := r.table.update(id, conflicts, func(c *models.Category) {
		c.Name = category.Name
		c.Description = category.Description
	})
	if err == nil {
		category.ID = id
	}
	return err
}

func (r *MemoryCategoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.table.remove(id)
}

type MemoryProductRepository struct {
	table  *memTable[models.Product]
	unique bool
}

func NewMemoryProductRepository(unique bool) *MemoryProductRepository {
	return &MemoryProductRepository{table: newMemTable[models.Product](), unique: unique}
}

func (r *MemoryProductRepository) FindAll(context.Context) ([]models.Product, error) {
	return r.table.all(), nil
}

func (r *MemoryProductRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := r.table.find(func(p models.Product) bool { return p.Name == name })
	return ok, nil
}

func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	var conflicts func(models.Product) bool
	if r.unique {
		conflicts = func(p models.Product) bool { return p.Name == product.Name }
	}
	return r.table.insert(product.ID, *product, conflicts)
}

func (r *MemoryProductRepository) Update(_ context.Context, id primitive.ObjectID, product *models.Product) error {
	var conflicts func(primitive.ObjectID, models.Product) bool
	if r.unique {
		conflicts = func(_ primitive.ObjectID, p models.Product) bool { return p.Name == product.Name }
	}
	_, err := r.table.update(id, conflicts, func(p *models.Product) {
		keep := p.ID
		*p = *product
		p.ID = keep
	})
	if err == nil {
		product.ID = id
	}
	return err
}

func (r *MemoryProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.table.remove(id)
}

type MemoryUserRepository struct {
	table *memTable[models.User]
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{table: newMemTable[models.User]()}
}

func (r *MemoryUserRepository) FindAll(context.Context) ([]models.User, error) {
	users := r.table.all()
	for i := range users {
		users[i].Password = ""
		users[i].VerificationToken = ""
		users[i].TokenExpires = nil
	}
	return users, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := r.table.find(func(u models.User) bool { return u.Email == email })
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByVerificationToken(_ context.Context, tokenHash string) (*models.User, error) {
	u, ok := r.table.find(func(u models.User) bool {
		return u.VerificationToken != "" && u.VerificationToken == tokenHash
	})
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.table.find(func(u models.User) bool { return u.Username == username })
	return ok, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return r.table.insert(user.ID, *user, func(u models.User) bool {
		return u.Email == user.Email
	})
}

func (r *MemoryUserRepository) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	_, err := r.table.update(id, nil, func(u *models.User) {
		u.EmailVerified = true
		u.VerificationToken = ""
		u.TokenExpires = nil
	})
	return err
}

type MemorySubscriberRepository struct {
	table *memTable[models.Subscriber]
}

func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{table: newMemTable[models.Subscriber]()}
}

func (r *MemorySubscriberRepository) FindAll(context.Context) ([]models.Subscriber, error) {
	return r.table.all(), nil
}

func (r *MemorySubscriberRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Subscriber, error) {
	s, ok := r.table.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySubscriberRepository) Create(_ context.Context, subscriber *models.Subscriber) error {
	if subscriber.ID.IsZero() {
		subscriber.ID = primitive.NewObjectID()
	}
	return r.table.insert(subscriber.ID, *subscriber, nil)
}

func (r *MemorySubscriberRepository) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Subscriber, error) {
	s, err := r.table.update(id, nil, func(s *models.Subscriber) {
		if v, ok := updates["name"].(string); ok {
			s.Name = v
		}
		if v, ok := updates["subscribedToChannel"].(string); ok {
			s.SubscribedToChannel = v
		}
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MemorySubscriberRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.table.remove(id)
}
