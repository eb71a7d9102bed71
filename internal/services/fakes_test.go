package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// memWallets is an in-memory WalletWriter, WalletReader and Transactor. Transactions are
// serialized, nested calls join the outer one, and a failed fn rolls back every change,
// including those of enlisted stores, like the Postgres implementation.
type memWallets struct {
	txMu sync.Mutex

	mu       sync.Mutex
	wallets  map[uuid.UUID]models.WalletDB
	txns     []models.TransactionDB
	accounts []models.BankAccountDB
	enlisted []snapshotter
}

// snapshotter is a store that can be rolled back together with the wallets.
type snapshotter interface {
	snapshot() (restore func())
}

type memTxKey struct{}

func newMemWallets() *memWallets {
	return &memWallets{wallets: make(map[uuid.UUID]models.WalletDB)}
}

func (m *memWallets) enlist(s snapshotter) {
	m.enlisted = append(m.enlisted, s)
}

func (m *memWallets) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	wallets := make(map[uuid.UUID]models.WalletDB, len(m.wallets))
	for k, v := range m.wallets {
		wallets[k] = v
	}
	txns := append([]models.TransactionDB(nil), m.txns...)
	accounts := append([]models.BankAccountDB(nil), m.accounts...)
	m.mu.Unlock()

	restores := make([]func(), 0, len(m.enlisted))
	for _, s := range m.enlisted {
		restores = append(restores, s.snapshot())
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.mu.Lock()
		m.wallets, m.txns, m.accounts = wallets, txns, accounts
		m.mu.Unlock()
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

func (m *memWallets) EnsureWallet(_ context.Context, userID uuid.UUID) (*models.WalletDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[userID]
	if !ok {
		w = models.WalletDB{UserID: userID, Balance: decimal.Zero}
		m.wallets[userID] = w
	}
	return &w, nil
}

func (m *memWallets) LockWallet(context.Context, uuid.UUID) error { return nil }

func (m *memWallets) SaveCredit(_ context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.wallets[userID]
	w.Balance = w.Balance.Add(amount)
	m.wallets[userID] = w
	return w.Balance, nil
}

func (m *memWallets) SaveDebit(_ context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[userID]
	if !ok || w.Balance.LessThan(amount) {
		return decimal.Zero, models.ErrRecordNotFound
	}
	w.Balance = w.Balance.Sub(amount)
	m.wallets[userID] = w
	return w.Balance, nil
}

func (m *memWallets) SaveTransaction(_ context.Context, txn *models.TransactionDB) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.txns {
		if t.UserID == txn.UserID && t.Reference == txn.Reference && t.Type == txn.Type {
			return models.ErrUniqueViolation
		}
	}
	m.txns = append(m.txns, *txn)
	return nil
}

func (m *memWallets) UpdateTransactionStatus(_ context.Context, userID uuid.UUID, ref models.Reference, txType models.TransactionType, status models.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.txns {
		if t.UserID == userID && t.Reference == ref && t.Type == txType {
			m.txns[i].Status = status
			return nil
		}
	}
	return models.ErrRecordNotFound
}

func (m *memWallets) SaveBankAccount(_ context.Context, acct *models.BankAccountDB) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = append(m.accounts, *acct)
	return nil
}

func (m *memWallets) DeleteBankAccount(_ context.Context, userID, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range m.accounts {
		if a.ID == accountID && a.UserID == userID {
			m.accounts = append(m.accounts[:i], m.accounts[i+1:]...)
			return nil
		}
	}
	return models.ErrRecordNotFound
}

func (m *memWallets) GetByUserID(_ context.Context, userID uuid.UUID) (*models.WalletDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[userID]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &w, nil
}

func (m *memWallets) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.TransactionDB
	for i := len(m.txns) - 1; i >= 0; i-- {
		if m.txns[i].UserID == userID {
			out = append(out, m.txns[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memWallets) ListBankAccounts(_ context.Context, userID uuid.UUID) ([]models.BankAccountDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.BankAccountDB
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memWallets) GetBankAccount(_ context.Context, userID, accountID uuid.UUID) (*models.BankAccountDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.ID == accountID && a.UserID == userID {
			return &a, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (m *memWallets) balance(userID uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[userID].Balance
}

func (m *memWallets) entries(userID uuid.UUID) []models.TransactionDB {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.TransactionDB
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

type sentNotification struct {
	UserID  uuid.UUID
	Type    models.NotificationType
	Message string
	Link    string
	Ref     models.Reference
	Extra   models.NotificationExtra
}

// recordingNotifier captures best-effort notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, typ models.NotificationType, message, link string, ref models.Reference, extra models.NotificationExtra) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID, typ, message, link, ref, extra})
}

func (r *recordingNotifier) ofType(typ models.NotificationType) []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []sentNotification
	for _, n := range r.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// memSettlements is an in-memory SettlementRepository with an atomic compare-and-set.
type memSettlements struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.SettlementItemDB
}

func newMemSettlements(items ...models.SettlementItemDB) *memSettlements {
	m := &memSettlements{items: make(map[uuid.UUID]models.SettlementItemDB)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memSettlements) GetByID(_ context.Context, id uuid.UUID) (*models.SettlementItemDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &it, nil
}

func (m *memSettlements) CompareAndSetStatus(_ context.Context, id uuid.UUID, prev models.SettlementStatus, upd models.SettlementUpdate) (*models.SettlementItemDB, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok || it.Status != prev {
		return nil, false, nil
	}
	it.Status = upd.Status
	it.CancelReason = upd.CancelReason
	it.CRImage = upd.CRImage
	m.items[id] = it
	return &it, true, nil
}

// memWithdrawals is an in-memory WithdrawalRepository enforcing one Pending request per user.
type memWithdrawals struct {
	mu        sync.Mutex
	reqs      map[uuid.UUID]models.WithdrawalRequestDB
	order     []uuid.UUID
	createErr error
}

func newMemWithdrawals() *memWithdrawals {
	return &memWithdrawals{reqs: make(map[uuid.UUID]models.WithdrawalRequestDB)}
}

func (m *memWithdrawals) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := make(map[uuid.UUID]models.WithdrawalRequestDB, len(m.reqs))
	for k, v := range m.reqs {
		reqs[k] = v
	}
	order := append([]uuid.UUID(nil), m.order...)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.reqs, m.order = reqs, order
	}
}

func (m *memWithdrawals) Create(_ context.Context, req *models.WithdrawalRequestDB) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.reqs {
		if r.UserID == req.UserID && r.Status == models.WithdrawalPending {
			return models.ErrUniqueViolation
		}
	}
	m.reqs[req.ID] = *req
	m.order = append(m.order, req.ID)
	return nil
}

func (m *memWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequestDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reqs[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &r, nil
}

func (m *memWithdrawals) GetPendingByUserID(_ context.Context, userID uuid.UUID) (*models.WithdrawalRequestDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reqs {
		if r.UserID == userID && r.Status == models.WithdrawalPending {
			return &r, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (m *memWithdrawals) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequestDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.WithdrawalRequestDB
	for i := len(m.order) - 1; i >= 0; i-- {
		if r := m.reqs[m.order[i]]; r.UserID == userID {
			out = append(out, r)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memWithdrawals) CompareAndSetStatus(_ context.Context, id uuid.UUID, prev, next models.WithdrawalStatus, rejectionReason *string) (*models.WithdrawalRequestDB, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reqs[id]
	if !ok || r.Status != prev {
		return nil, false, nil
	}
	r.Status = next
	r.RejectionReason = rejectionReason
	m.reqs[id] = r
	return &r, true, nil
}

// memNotifications is an in-memory NotificationWriter and NotificationReader.
type memNotifications struct {
	mu    sync.Mutex
	items []models.NotificationDB
}

func (m *memNotifications) Create(_ context.Context, n *models.NotificationDB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return models.ErrRecordNotFound
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) Delete(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return models.ErrRecordNotFound
}

func (m *memNotifications) DeleteAll(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int64
	for _, it := range m.items {
		if it.UserID == userID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return n, nil
}

func (m *memNotifications) List(_ context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.NotificationDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.NotificationDB
	for _, it := range m.items {
		if it.UserID != userID {
			continue
		}
		if f.UnreadOnly && it.IsRead {
			continue
		}
		if f.Category != "" && it.Type.Category() != f.Category {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// stubFetcher returns a fixed price or error and counts calls.
type stubFetcher struct {
	mu    sync.Mutex
	price decimal.Decimal
	err   error
	calls atomic.Int32
	// gate, when set, blocks every call until it is closed or ctx is done
	gate chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, _ string) (decimal.Decimal, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, f.err
}

func (f *stubFetcher) set(price decimal.Decimal, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price, f.err = price, err
}

// fixedQuoter is a Quoter returning a fixed result.
type fixedQuoter struct {
	quote models.Quote
	err   error
	calls int
}

func (q *fixedQuoter) GetQuote(context.Context, string) (models.Quote, bool, error) {
	q.calls++
	return q.quote, false, q.err
}
