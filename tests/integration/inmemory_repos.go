package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bank-card-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// The in-memory storage below mirrors the row-level locking behavior of
// PostgreSQL closely enough to make the concurrency tests meaningful:
// every card and block-request row carries its own mutex, the ...ForUpdate
// accessors acquire it through the ambient transaction, and Commit/Rollback
// release everything the transaction holds. Lock acquisition order is
// therefore exercised for real, and lost updates would actually show up as
// broken balance sums.

// --- Transaction with held row locks ---

type memTx struct {
	mu       sync.Mutex
	held     []*sync.Mutex
	heldSet  map[*sync.Mutex]bool
	finished bool
}

func newMemTx() *memTx {
	return &memTx{heldSet: make(map[*sync.Mutex]bool)}
}

// acquire blocks until the row lock is held by this transaction. Re-acquiring
// a lock the transaction already holds is a no-op, like in PostgreSQL.
func (t *memTx) acquire(row *sync.Mutex) {
	t.mu.Lock()
	already := t.heldSet[row]
	t.mu.Unlock()
	if already {
		return
	}
	row.Lock()
	t.mu.Lock()
	t.held = append(t.held, row)
	t.heldSet[row] = true
	t.mu.Unlock()
}

func (t *memTx) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.release(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.release(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *memTx) Conn() *pgx.Conn                                               { return nil }

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor { return &inMemoryTransactor{} }

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return newMemTx(), nil
}

func rowTx(tx pgx.Tx) *memTx {
	mt, ok := tx.(*memTx)
	if !ok {
		panic("in-memory repo used with a foreign transaction type")
	}
	return mt
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[int64]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user not found")
	}
	delete(r.users, id)
	return nil
}

func (r *inMemoryUserRepo) List(ctx context.Context, page, size int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return paginate(out, page, size), nil
}

// --- In-Memory Card Repo ---

type cardRow struct {
	card domain.Card
	lock sync.Mutex
}

type inMemoryCardRepo struct {
	mu     sync.RWMutex
	cards  map[int64]*cardRow
	users  *inMemoryUserRepo // email -> ownership resolution
	nextID int64
}

func newInMemoryCardRepo(users *inMemoryUserRepo) *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[int64]*cardRow), users: users}
}

func (r *inMemoryCardRepo) Create(ctx context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.cards {
		if row.card.Number == c.Number {
			return fmt.Errorf("card number already exists")
		}
	}
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	r.cards[c.ID] = &cardRow{card: *c}
	return nil
}

func (r *inMemoryCardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	cp := row.card
	return &cp, nil
}

func (r *inMemoryCardRepo) GetByNumber(ctx context.Context, number string) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.cards {
		if row.card.Number == number {
			cp := row.card
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCardRepo) findRowByNumber(number string) *cardRow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.cards {
		if row.card.Number == number {
			return row
		}
	}
	return nil
}

// GetByNumberForUpdate takes the row lock through the transaction, then
// re-reads so a waiting caller observes the balance written by whoever held
// the lock before it.
func (r *inMemoryCardRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number string) (*domain.Card, error) {
	row := r.findRowByNumber(number)
	if row == nil {
		return nil, nil
	}
	rowTx(tx).acquire(&row.lock)
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := row.card
	return &cp, nil
}

func (r *inMemoryCardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Card, error) {
	r.mu.RLock()
	row, ok := r.cards[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	rowTx(tx).acquire(&row.lock)
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := row.card
	return &cp, nil
}

func (r *inMemoryCardRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("card not found")
	}
	row.card.Balance = balance
	row.card.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryCardRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status domain.CardStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("card not found")
	}
	row.card.Status = status
	row.card.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryCardRepo) Update(ctx context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.cards[c.ID]
	if !ok {
		return fmt.Errorf("card not found")
	}
	c.UpdatedAt = time.Now().UTC()
	row.card = *c
	return nil
}

func (r *inMemoryCardRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[id]; !ok {
		return fmt.Errorf("card not found")
	}
	delete(r.cards, id)
	return nil
}

func (r *inMemoryCardRepo) List(ctx context.Context, page, size int) ([]domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Card, 0, len(r.cards))
	for _, row := range r.cards {
		out = append(out, row.card)
	}
	return paginate(out, page, size), nil
}

func (r *inMemoryCardRepo) ListByOwner(ctx context.Context, email string, page, size int) ([]domain.Card, error) {
	owner, err := r.users.GetByEmail(ctx, email)
	if err != nil || owner == nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Card
	for _, row := range r.cards {
		if row.card.UserID == owner.ID {
			out = append(out, row.card)
		}
	}
	return paginate(out, page, size), nil
}

func (r *inMemoryCardRepo) GetByOwnerAndID(ctx context.Context, email string, cardID int64) (*domain.Card, error) {
	owner, err := r.users.GetByEmail(ctx, email)
	if err != nil || owner == nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.cards[cardID]
	if !ok || row.card.UserID != owner.ID {
		return nil, nil
	}
	cp := row.card
	return &cp, nil
}

// --- In-Memory Block Request Repo ---

type blockRequestRow struct {
	req  domain.BlockRequest
	lock sync.Mutex
}

type inMemoryBlockRequestRepo struct {
	mu     sync.RWMutex
	reqs   map[int64]*blockRequestRow
	nextID int64
}

func newInMemoryBlockRequestRepo() *inMemoryBlockRequestRepo {
	return &inMemoryBlockRequestRepo{reqs: make(map[int64]*blockRequestRow)}
}

func (r *inMemoryBlockRequestRepo) Create(ctx context.Context, req *domain.BlockRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	r.reqs[req.ID] = &blockRequestRow{req: *req}
	return nil
}

func (r *inMemoryBlockRequestRepo) GetByID(ctx context.Context, id int64) (*domain.BlockRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := row.req
	return &cp, nil
}

func (r *inMemoryBlockRequestRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.BlockRequest, error) {
	r.mu.RLock()
	row, ok := r.reqs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	rowTx(tx).acquire(&row.lock)
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := row.req
	return &cp, nil
}

func (r *inMemoryBlockRequestRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.reqs[id]
	if !ok {
		return fmt.Errorf("block request not found")
	}
	row.req.Processed = true
	return nil
}

func (r *inMemoryBlockRequestRepo) ListPending(ctx context.Context, page, size int) ([]domain.BlockRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.BlockRequest
	for _, row := range r.reqs {
		if !row.req.Processed {
			out = append(out, row.req)
		}
	}
	return paginate(out, page, size), nil
}

func paginate[T any](items []T, page, size int) []T {
	start := page * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
