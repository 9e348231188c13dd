package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"restaurant-match-backend/internal/catalog"
	"restaurant-match-backend/internal/matching"
	"restaurant-match-backend/internal/models"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (f *fakeUsers) GetByCode(_ context.Context, code string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Code == code {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with code %s: %w", code, ErrNotFound)
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) CodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type fakeSwipes struct {
	mu      sync.Mutex
	records map[string]models.SwipeRecord
	upserts int
}

func newFakeSwipes() *fakeSwipes {
	return &fakeSwipes{records: make(map[string]models.SwipeRecord)}
}

func (f *fakeSwipes) Upsert(_ context.Context, s models.SwipeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[s.UserID+"|"+s.RestaurantID] = s
	f.upserts++
	return nil
}

func (f *fakeSwipes) Get(_ context.Context, userID, restaurantID string) (*models.SwipeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.records[userID+"|"+restaurantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (f *fakeSwipes) RestaurantIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, s := range f.records {
		if s.UserID == userID {
			out = append(out, s.RestaurantID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeSwipes) DeleteAll(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, s := range f.records {
		if s.UserID == userID {
			delete(f.records, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeSwipes) snapshot(userID string) map[string]models.Direction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Direction)
	for _, s := range f.records {
		if s.UserID == userID {
			out[s.RestaurantID] = s.Direction
		}
	}
	return out
}

// fakeFavorites keeps insertion order so listings are newest first
type fakeFavorites struct {
	mu      sync.Mutex
	records []models.FavoriteRecord
}

func (f *fakeFavorites) indexOf(userID, restaurantID string) int {
	for i, r := range f.records {
		if r.UserID == userID && r.RestaurantID == restaurantID {
			return i
		}
	}
	return -1
}

func (f *fakeFavorites) Create(_ context.Context, fav models.FavoriteRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(fav.UserID, fav.RestaurantID) >= 0 {
		return false, nil
	}
	f.records = append(f.records, fav)
	return true, nil
}

func (f *fakeFavorites) Delete(_ context.Context, userID, restaurantID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(userID, restaurantID)
	if i < 0 {
		return false, nil
	}
	f.records = append(f.records[:i], f.records[i+1:]...)
	return true, nil
}

func (f *fakeFavorites) DeleteAll(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.records[:0]
	var n int64
	for _, r := range f.records {
		if r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return n, nil
}

func (f *fakeFavorites) ListByUser(_ context.Context, userID string) ([]models.FavoriteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.FavoriteRecord{}
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeFavorites) ListForUsers(_ context.Context, userIDs, restaurantIDs []string) ([]models.FavoriteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := toSet(userIDs)
	restaurants := toSet(restaurantIDs)
	out := []models.FavoriteRecord{}
	for _, r := range f.records {
		_, u := users[r.UserID]
		_, rr := restaurants[r.RestaurantID]
		if u && rr {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFavorites) Exists(_ context.Context, userID, restaurantID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexOf(userID, restaurantID) >= 0, nil
}

func (f *fakeFavorites) RestaurantIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r.RestaurantID)
		}
	}
	return out, nil
}

func (f *fakeFavorites) UsersWithFavorite(_ context.Context, restaurantID string, userIDs []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := toSet(userIDs)
	out := []string{}
	for _, r := range f.records {
		if _, ok := users[r.UserID]; ok && r.RestaurantID == restaurantID {
			out = append(out, r.UserID)
		}
	}
	return out, nil
}

type fakeFriends struct {
	mu    sync.Mutex
	edges map[string]map[string]time.Time
	users *fakeUsers
}

func newFakeFriends(users *fakeUsers) *fakeFriends {
	return &fakeFriends{edges: make(map[string]map[string]time.Time), users: users}
}

func (f *fakeFriends) Add(_ context.Context, userID, friendID string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.edges[userID][friendID]; ok {
		return false, nil
	}
	for _, e := range [][2]string{{userID, friendID}, {friendID, userID}} {
		if f.edges[e[0]] == nil {
			f.edges[e[0]] = make(map[string]time.Time)
		}
		f.edges[e[0]][e[1]] = since
	}
	return true, nil
}

func (f *fakeFriends) Remove(_ context.Context, userID, friendID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.edges[userID][friendID]
	delete(f.edges[userID], friendID)
	delete(f.edges[friendID], userID)
	return ok, nil
}

func (f *fakeFriends) FriendIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for id := range f.edges[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeFriends) List(ctx context.Context, userID string) ([]models.Friend, error) {
	ids, _ := f.FriendIDs(ctx, userID)
	out := []models.Friend{}
	for _, id := range ids {
		friend := models.Friend{ID: id}
		if f.users != nil {
			if u, err := f.users.GetByID(ctx, id); err == nil {
				friend.DisplayName = u.DisplayName
			}
		}
		f.mu.Lock()
		friend.Since = f.edges[userID][id]
		f.mu.Unlock()
		out = append(out, friend)
	}
	return out, nil
}

func (f *fakeFriends) AreFriends(_ context.Context, userID, friendID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.edges[userID][friendID]
	return ok, nil
}

type fakeSelections struct {
	mu       sync.Mutex
	selected map[string]models.SelectedRestaurant
	winners  map[string][]models.WinnerEntry
	failWith error
}

func newFakeSelections() *fakeSelections {
	return &fakeSelections{
		selected: make(map[string]models.SelectedRestaurant),
		winners:  make(map[string][]models.WinnerEntry),
	}
}

func (f *fakeSelections) SetSelected(_ context.Context, sel models.SelectedRestaurant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.selected[sel.UserID] = sel
	return nil
}

func (f *fakeSelections) GetSelected(_ context.Context, userID string) (*models.SelectedRestaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, ok := f.selected[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sel, nil
}

func (f *fakeSelections) UpsertWinner(_ context.Context, entry models.WinnerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	history := f.winners[entry.UserID]
	for i := range history {
		if history[i].RestaurantID == entry.RestaurantID {
			history[i] = entry
			return nil
		}
	}
	f.winners[entry.UserID] = append(history, entry)
	return nil
}

func (f *fakeSelections) ListWinners(_ context.Context, userID string) ([]models.WinnerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WinnerEntry, len(f.winners[userID]))
	copy(out, f.winners[userID])
	return out, nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	entries map[string][]models.Notification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{entries: make(map[string][]models.Notification)}
}

func (f *fakeNotifications) Create(_ context.Context, n models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries[n.UserID] {
		if e.ID == n.ID {
			return false, nil
		}
	}
	f.entries[n.UserID] = append(f.entries[n.UserID], n)
	return true, nil
}

func (f *fakeNotifications) List(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.entries[userID]))
	copy(out, f.entries[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries[userID] {
		if f.entries[userID][i].ID == id {
			f.entries[userID][i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.entries[userID] {
		if !f.entries[userID][i].Read {
			f.entries[userID][i].Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries[userID] {
		if e.ID == id {
			f.entries[userID] = append(f.entries[userID][:i], f.entries[userID][i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeNotifications) DeleteAll(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.entries[userID]))
	delete(f.entries, userID)
	return n, nil
}

func (f *fakeNotifications) Prune(_ context.Context, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for user, list := range f.entries {
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
		if len(list) > keep {
			n += int64(len(list) - keep)
			f.entries[user] = list[:keep]
		}
	}
	return n, nil
}

func (f *fakeNotifications) forUser(userID string) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.entries[userID]))
	copy(out, f.entries[userID])
	return out
}

type fakePresence struct {
	mu         sync.Mutex
	online     map[string]bool
	lastSwiped map[string]time.Time
	failWith   error
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[string]bool), lastSwiped: make(map[string]time.Time)}
}

func (f *fakePresence) SetOnline(_ context.Context, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.online[userID] = true
	return nil
}

func (f *fakePresence) SetOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.online, userID)
	return nil
}

func (f *fakePresence) Online(_ context.Context, userIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		out[id] = f.online[id]
	}
	return out, nil
}

func (f *fakePresence) TouchLastSwiped(_ context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.lastSwiped[userID] = at
	return nil
}

func (f *fakePresence) LastSwiped(_ context.Context, userID string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.lastSwiped[userID]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return at, nil
}

type fakeSnapshots struct {
	mu   sync.Mutex
	keys map[string]map[matching.Key]struct{}
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{keys: make(map[string]map[matching.Key]struct{})}
}

func (f *fakeSnapshots) Load(_ context.Context, userID string) ([]matching.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []matching.Key{}
	for k := range f.keys[userID] {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeSnapshots) Save(_ context.Context, userID string, keys []matching.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[matching.Key]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	f.keys[userID] = set
	return nil
}

func (f *fakeSnapshots) Add(_ context.Context, userID string, keys ...matching.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[userID] == nil {
		f.keys[userID] = make(map[matching.Key]struct{})
	}
	for _, k := range keys {
		f.keys[userID][k] = struct{}{}
	}
	return nil
}

type fakeCatalog struct {
	pages    map[int]*catalog.Page
	failWith error
	calls    []catalog.SearchParams
}

func (f *fakeCatalog) Search(_ context.Context, params catalog.SearchParams) (*catalog.Page, error) {
	f.calls = append(f.calls, params)
	if f.failWith != nil {
		return nil, f.failWith
	}
	page, ok := f.pages[params.Page]
	if !ok {
		return &catalog.Page{Page: params.Page}, nil
	}
	return page, nil
}

type fakePusher struct {
	mu     sync.Mutex
	online map[string]bool
	sent   map[string][]WSMessage
}

func newFakePusher(online ...string) *fakePusher {
	p := &fakePusher{online: make(map[string]bool), sent: make(map[string][]WSMessage)}
	for _, id := range online {
		p.online[id] = true
	}
	return p
}

func (p *fakePusher) SendToUser(userID string, message WSMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent[userID] = append(p.sent[userID], message)
	return nil
}

func (p *fakePusher) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePusher) messages(userID string) []WSMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]WSMessage(nil), p.sent[userID]...)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func restaurant(id string) models.Restaurant {
	return models.Restaurant{ID: id, Name: "Restaurant " + id}
}

// world wires every service over in-memory stores
type world struct {
	users         *fakeUsers
	swipes        *fakeSwipes
	favorites     *fakeFavorites
	friends       *fakeFriends
	selections    *fakeSelections
	notifications *fakeNotifications
	presence      *fakePresence
	snapshots     *fakeSnapshots
	pusher        *fakePusher

	presenceService     *PresenceService
	notificationService *NotificationService
	matchService        *MatchService
	swipeService        *SwipeService
	friendService       *FriendService
	tournamentService   *TournamentService
}

func newWorld(users ...models.User) *world {
	w := &world{
		users:         newFakeUsers(users...),
		swipes:        newFakeSwipes(),
		favorites:     &fakeFavorites{},
		selections:    newFakeSelections(),
		notifications: newFakeNotifications(),
		presence:      newFakePresence(),
		snapshots:     newFakeSnapshots(),
		pusher:        newFakePusher(),
	}
	w.friends = newFakeFriends(w.users)

	w.presenceService = NewPresenceService(w.presence, time.Minute)
	w.presenceService.wait = true
	w.notificationService = NewNotificationService(w.notifications, w.pusher, 50)
	w.matchService = NewMatchService(w.friends, w.favorites, w.users, w.snapshots, w.notificationService)
	w.swipeService = NewSwipeService(w.swipes, w.favorites, w.matchService, w.presenceService)
	w.friendService = NewFriendService(w.friends, w.users, w.presenceService, w.notificationService, w.matchService)
	w.tournamentService = NewTournamentService(w.favorites, w.selections)
	return w
}
