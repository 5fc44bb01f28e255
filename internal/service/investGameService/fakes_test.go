package investGameService

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/data/session"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

type holdingKey struct {
	userID   int64
	issuerID string
}

type repoState struct {
	users        map[int64]dbModel.User
	admins       map[int64]dbModel.Admin
	shares       map[string]model.Share
	holdings     map[holdingKey]model.Holding
	transactions []model.Transaction
	prices       []dbModel.SharePrice
	snapshots    []dbModel.LeaderboardSnapshot
	nextUserID   int64
	nextAdminID  int64
	nextTransID  int64
}

// fakeRepo keeps the whole store in memory. WithinTransaction serializes
// callers under a mutex and restores a state snapshot when the callback
// fails, mirroring the rollback the real store gives us. Methods called
// outside a transaction are only exercised single-goroutine in tests.
type fakeRepo struct {
	mu sync.Mutex
	repoState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{repoState: repoState{
		users:    make(map[int64]dbModel.User),
		admins:   make(map[int64]dbModel.Admin),
		shares:   make(map[string]model.Share),
		holdings: make(map[holdingKey]model.Holding),
	}}
}

func (r *fakeRepo) cloneState() repoState {
	s := repoState{
		users:        make(map[int64]dbModel.User, len(r.users)),
		admins:       make(map[int64]dbModel.Admin, len(r.admins)),
		shares:       make(map[string]model.Share, len(r.shares)),
		holdings:     make(map[holdingKey]model.Holding, len(r.holdings)),
		transactions: append([]model.Transaction(nil), r.transactions...),
		prices:       append([]dbModel.SharePrice(nil), r.prices...),
		snapshots:    append([]dbModel.LeaderboardSnapshot(nil), r.snapshots...),
		nextUserID:   r.nextUserID,
		nextAdminID:  r.nextAdminID,
		nextTransID:  r.nextTransID,
	}
	for k, v := range r.users {
		s.users[k] = v
	}
	for k, v := range r.admins {
		s.admins[k] = v
	}
	for k, v := range r.shares {
		s.shares[k] = v
	}
	for k, v := range r.holdings {
		s.holdings[k] = v
	}
	return s
}

func (r *fakeRepo) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}

	backup := r.cloneState()
	if err := tFunc(ctx); err != nil {
		r.repoState = backup
		return err
	}
	return nil
}

func (r *fakeRepo) InsertUser(_ context.Context, user dbModel.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return 0, repository.ErrAlreadyExists
		}
	}
	r.nextUserID++
	user.UserID = r.nextUserID
	r.users[user.UserID] = user
	return user.UserID, nil
}

func (r *fakeRepo) getUser(userID int64) (model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return model.User{
		UserID: u.UserID, Username: u.Username, Firstname: u.Firstname, Lastname: u.Lastname,
		Email: u.Email, Gender: u.Gender, DOB: u.DOB, Verified: u.Verified, Banned: u.Banned,
		Balance: u.Balance, OverallPerc: u.OverallPerc, TotalSales: u.TotalSales,
	}, nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, userID int64) (model.User, error) {
	return r.getUser(userID)
}

func (r *fakeRepo) GetUserForUpdate(_ context.Context, userID int64) (model.User, error) {
	return r.getUser(userID)
}

func (r *fakeRepo) GetUserCredentials(_ context.Context, username string) (int64, string, error) {
	for id, u := range r.users {
		if u.Username == username {
			return id, u.Passhash, nil
		}
	}
	return 0, "", repository.ErrNotFound
}

func (r *fakeRepo) UpdateUserPasshash(_ context.Context, userID int64, passhash string) error {
	u := r.users[userID]
	u.Passhash = passhash
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) UpdateUserBalance(_ context.Context, userID int64, balance decimal.Decimal) error {
	u := r.users[userID]
	u.Balance = balance
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) UpdateUserSellStats(_ context.Context, userID int64, overallPerc decimal.Decimal, totalSales int) error {
	u := r.users[userID]
	u.OverallPerc = overallPerc
	u.TotalSales = totalSales
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) SetUserBanned(_ context.Context, userID int64, banned bool) error {
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Banned = banned
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) GetUsers(_ context.Context, params model.ListParams) ([]model.User, int, error) {
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, _ := r.getUser(id)
		users = append(users, u)
	}
	return pageSlice(users, params), len(users), nil
}

func (r *fakeRepo) GetGenderCounts(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, u := range r.users {
		counts[u.Gender]++
	}
	return counts, nil
}

func (r *fakeRepo) GetUserDOBs(_ context.Context) ([]time.Time, error) {
	dobs := make([]time.Time, 0, len(r.users))
	for _, u := range r.users {
		dobs = append(dobs, u.DOB)
	}
	return dobs, nil
}

func (r *fakeRepo) GetAdminCredentials(_ context.Context, username string) (int64, string, error) {
	for id, a := range r.admins {
		if a.Username == username {
			return id, a.Passhash, nil
		}
	}
	return 0, "", repository.ErrNotFound
}

func (r *fakeRepo) UpdateAdminPasshash(_ context.Context, adminID int64, passhash string) error {
	a := r.admins[adminID]
	a.Passhash = passhash
	r.admins[adminID] = a
	return nil
}

func snapshotToShare(s asxModel.ShareSnapshot) model.Share {
	return model.Share{
		IssuerID: s.IssuerID, Fullname: s.Fullname, Abbrevname: s.Abbrevname,
		Shortname: s.Shortname, Description: s.Description, IndustrySector: s.IndustrySector,
		CurrentPrice: s.Price, MarketCap: s.MarketCap, ShareCount: s.ShareCount,
		DayChangePercent: s.DayChangePercent, DayChangePrice: s.DayChangePrice,
		DayPriceHigh: s.DayPriceHigh, DayPriceLow: s.DayPriceLow, DayVolume: s.DayVolume,
	}
}

func (r *fakeRepo) InsertShare(_ context.Context, snapshot asxModel.ShareSnapshot) error {
	if _, ok := r.shares[snapshot.IssuerID]; ok {
		return repository.ErrAlreadyExists
	}
	r.shares[snapshot.IssuerID] = snapshotToShare(snapshot)
	return nil
}

func (r *fakeRepo) UpsertShares(_ context.Context, snapshots []asxModel.ShareSnapshot) error {
	for _, s := range snapshots {
		r.shares[s.IssuerID] = snapshotToShare(s)
	}
	return nil
}

func (r *fakeRepo) GetShare(_ context.Context, issuerID string) (model.Share, error) {
	share, ok := r.shares[issuerID]
	if !ok {
		return model.Share{}, repository.ErrNotFound
	}
	return share, nil
}

func (r *fakeRepo) GetShares(_ context.Context, params model.ListParams) ([]model.Share, int, error) {
	ids, _ := r.GetAllIssuerIDs(context.Background())
	shares := make([]model.Share, 0, len(ids))
	for _, id := range ids {
		shares = append(shares, r.shares[id])
	}
	return pageSlice(shares, params), len(shares), nil
}

func (r *fakeRepo) GetAllIssuerIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.shares))
	for id := range r.shares {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) InsertSharePrices(_ context.Context, prices []dbModel.SharePrice) error {
	for _, p := range prices {
		dup := false
		for _, existing := range r.prices {
			if existing.IssuerID == p.IssuerID && existing.Time.Equal(p.Time) {
				dup = true
				break
			}
		}
		if !dup {
			r.prices = append(r.prices, p)
		}
	}
	return nil
}

func (r *fakeRepo) GetSharePriceHistory(_ context.Context, issuerID string, start, end time.Time) ([]model.SharePrice, error) {
	var out []model.SharePrice
	for _, p := range r.prices {
		if p.IssuerID == issuerID && !p.Time.Before(start) && !p.Time.After(end) {
			out = append(out, model.SharePrice{IssuerID: p.IssuerID, Time: p.Time, Price: p.Price})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (r *fakeRepo) GetHoldingForUpdate(_ context.Context, userID int64, issuerID string) (model.Holding, error) {
	h, ok := r.holdings[holdingKey{userID, issuerID}]
	if !ok {
		return model.Holding{}, repository.ErrNotFound
	}
	return h, nil
}

func (r *fakeRepo) UpsertHoldingBuy(_ context.Context, userID int64, issuerID string, quantity int, total, gross decimal.Decimal) error {
	key := holdingKey{userID, issuerID}
	h, ok := r.holdings[key]
	if !ok {
		r.holdings[key] = model.Holding{UserID: userID, IssuerID: issuerID, Quantity: quantity, Profit: decimal.Zero, Loss: total}
		return nil
	}
	h.Quantity += quantity
	h.Loss = h.Loss.Add(gross)
	r.holdings[key] = h
	return nil
}

func (r *fakeRepo) ApplyHoldingSell(_ context.Context, userID int64, issuerID string, quantity int, total decimal.Decimal) error {
	key := holdingKey{userID, issuerID}
	h := r.holdings[key]
	h.Quantity -= quantity
	h.Profit = h.Profit.Add(total)
	r.holdings[key] = h
	return nil
}

func (r *fakeRepo) GetHoldingsInfo(_ context.Context, userID int64, params model.ListParams) ([]model.HoldingInfo, int, error) {
	var infos []model.HoldingInfo
	for key, h := range r.holdings {
		if key.userID != userID {
			continue
		}
		share := r.shares[key.issuerID]
		infos = append(infos, model.HoldingInfo{
			UserID: h.UserID, IssuerID: h.IssuerID, Shortname: share.Shortname,
			Quantity: h.Quantity, Profit: h.Profit, Loss: h.Loss,
			CurrentPrice: share.CurrentPrice,
			Net:          h.Profit.Sub(h.Loss),
			Value:        share.CurrentPrice.Mul(decimal.NewFromInt(int64(h.Quantity))),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].IssuerID < infos[j].IssuerID })
	return pageSlice(infos, params), len(infos), nil
}

func (r *fakeRepo) InsertTransaction(_ context.Context, t dbModel.Transaction) (int64, error) {
	r.nextTransID++
	r.transactions = append(r.transactions, model.Transaction{
		TransID: r.nextTransID, IssuerID: t.IssuerID, UserID: t.UserID, Datetime: t.Datetime,
		Transtype: t.Transtype, Feeval: t.Feeval, Stocktransval: t.Stocktransval,
		Totaltransval: t.Totaltransval, Quantity: t.Quantity, Status: t.Status,
	})
	return r.nextTransID, nil
}

func (r *fakeRepo) GetTransactions(_ context.Context, userID int64, issuerID string, params model.ListParams) ([]model.Transaction, int, error) {
	var out []model.Transaction
	for _, t := range r.transactions {
		if t.UserID == userID && (issuerID == "" || t.IssuerID == issuerID) {
			out = append(out, t)
		}
	}
	return pageSlice(out, params), len(out), nil
}

func (r *fakeRepo) GetAllTransactions(_ context.Context) ([]model.Transaction, error) {
	return append([]model.Transaction(nil), r.transactions...), nil
}

func (r *fakeRepo) GetAvgPurchasePrice(_ context.Context, userID int64, issuerID string) (decimal.Decimal, bool, error) {
	totalVal := decimal.Zero
	totalQty := int64(0)
	for _, t := range r.transactions {
		if t.UserID == userID && t.IssuerID == issuerID && t.Transtype == model.TransTypeBuy {
			totalVal = totalVal.Add(t.Totaltransval)
			totalQty += int64(t.Quantity)
		}
	}
	if totalQty == 0 {
		return decimal.Zero, false, nil
	}
	return totalVal.Div(decimal.NewFromInt(totalQty)), true, nil
}

func (r *fakeRepo) GetLeaderboardRows(_ context.Context) ([]dbModel.LeaderboardRow, error) {
	rows := make([]dbModel.LeaderboardRow, 0, len(r.users))
	for id, u := range r.users {
		total := u.Balance
		for key, h := range r.holdings {
			if key.userID == id {
				total = total.Add(r.shares[key.issuerID].CurrentPrice.Mul(decimal.NewFromInt(int64(h.Quantity))))
			}
		}
		rows = append(rows, dbModel.LeaderboardRow{UserID: id, Username: u.Username, TotalValue: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalValue.Cmp(rows[j].TotalValue); c != 0 {
			return c > 0
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows, nil
}

func (r *fakeRepo) InsertLeaderboardSnapshot(_ context.Context, rows []dbModel.LeaderboardRow, at time.Time) error {
	for i, row := range rows {
		r.snapshots = append(r.snapshots, dbModel.LeaderboardSnapshot{
			UserID: row.UserID, TotalValue: row.TotalValue, Rank: i + 1, Time: at,
		})
	}
	return nil
}

func (r *fakeRepo) GetSnapshotValuesBefore(_ context.Context, cutoff time.Time) (map[int64]decimal.Decimal, error) {
	var latest time.Time
	for _, s := range r.snapshots {
		if !s.Time.After(cutoff) && s.Time.After(latest) {
			latest = s.Time
		}
	}
	values := make(map[int64]decimal.Decimal)
	if latest.IsZero() {
		return values, nil
	}
	for _, s := range r.snapshots {
		if s.Time.Equal(latest) {
			values[s.UserID] = s.TotalValue
		}
	}
	return values, nil
}

func pageSlice[T any](in []T, params model.ListParams) []T {
	if params.Offset >= len(in) {
		return nil
	}
	in = in[params.Offset:]
	if params.Limit > 0 && len(in) > params.Limit {
		in = in[:params.Limit]
	}
	return in
}

var errCacheMiss = errors.New("cache miss")

type fakeCache struct {
	mu        sync.Mutex
	snapshots map[string]asxModel.ShareSnapshot
	entries   []model.LeaderboardEntry
	hasBoard  bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[string]asxModel.ShareSnapshot)}
}

func (c *fakeCache) SetShareSnapshots(_ context.Context, snapshots []asxModel.ShareSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range snapshots {
		c.snapshots[s.IssuerID] = s
	}
	return nil
}

func (c *fakeCache) GetShareSnapshot(_ context.Context, issuerID string) (asxModel.ShareSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snapshots[issuerID]
	if !ok {
		return asxModel.ShareSnapshot{}, errCacheMiss
	}
	return s, nil
}

func (c *fakeCache) SetLeaderboard(_ context.Context, entries []model.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append([]model.LeaderboardEntry(nil), entries...)
	c.hasBoard = true
	return nil
}

func (c *fakeCache) GetLeaderboard(_ context.Context) ([]model.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasBoard {
		return nil, errCacheMiss
	}
	return append([]model.LeaderboardEntry(nil), c.entries...), nil
}

func (c *fakeCache) FlushLeaderboard(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.hasBoard = false
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	next     int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]model.Session)}
}

func (s *fakeSessions) Create(_ context.Context, sess model.Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	token := fmt.Sprintf("token-%d", s.next)
	s.sessions[token] = sess
	return token, nil
}

func (s *fakeSessions) Get(_ context.Context, token string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return model.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *fakeSessions) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

type fakeFeed struct {
	mu        sync.Mutex
	snapshots map[string]asxModel.ShareSnapshot
	errs      map[string]error
	calls     []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		snapshots: make(map[string]asxModel.ShareSnapshot),
		errs:      make(map[string]error),
	}
}

func (f *fakeFeed) GetShareSnapshot(_ context.Context, issuerID string) (asxModel.ShareSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, issuerID)
	if err, ok := f.errs[issuerID]; ok {
		return asxModel.ShareSnapshot{}, err
	}
	s, ok := f.snapshots[issuerID]
	if !ok {
		return asxModel.ShareSnapshot{}, errors.New("feed: unknown issuer")
	}
	return s, nil
}

type fakeReportGenerator struct{}

func (fakeReportGenerator) TransactionsReport(transactions []model.Transaction) ([]byte, error) {
	var sb strings.Builder
	for _, t := range transactions {
		sb.WriteString(fmt.Sprintf("%d:%s:%s;", t.TransID, t.IssuerID, t.Transtype))
	}
	return []byte(sb.String()), nil
}
