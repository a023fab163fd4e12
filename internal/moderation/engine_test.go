package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

// memWarningStore is an in-memory WarningStore for tests
type memWarningStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    []models.Warning
	failAll bool
}

func (s *memWarningStore) Insert(ctx context.Context, w *models.Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store caído")
	}
	s.nextID++
	w.ID = s.nextID
	s.rows = append(s.rows, *w)
	return nil
}

func (s *memWarningStore) CountFor(ctx context.Context, guildID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return 0, errors.New("store caído")
	}
	count := 0
	for _, w := range s.rows {
		if w.GuildID == guildID && w.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *memWarningStore) ListFor(ctx context.Context, guildID, userID string) ([]models.Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Warning
	for _, w := range s.rows {
		if w.GuildID == guildID && w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *memWarningStore) MostRecentFor(ctx context.Context, guildID, userID string) (*models.Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Warning
	for i := range s.rows {
		w := s.rows[i]
		if w.GuildID != guildID || w.UserID != userID {
			continue
		}
		if latest == nil || w.ID > latest.ID {
			latest = &w
		}
	}
	return latest, nil
}

func (s *memWarningStore) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.rows {
		if w.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memWarningStore) DeleteAllFor(ctx context.Context, guildID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.Warning
	var removed int64
	for _, w := range s.rows {
		if w.GuildID == guildID && w.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	s.rows = kept
	return removed, nil
}

// memPunishmentStore is an in-memory PunishmentStore for tests
type memPunishmentStore struct {
	mu   sync.Mutex
	rows map[string]models.Punishment
}

func newMemPunishmentStore() *memPunishmentStore {
	return &memPunishmentStore{rows: make(map[string]models.Punishment)}
}

func punishmentMapKey(guildID, userID string, action models.Action) string {
	return fmt.Sprintf("%s/%s/%s", guildID, userID, action)
}

func (s *memPunishmentStore) Upsert(ctx context.Context, p *models.Punishment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[punishmentMapKey(p.GuildID, p.UserID, p.Action)] = *p
	return nil
}

func (s *memPunishmentStore) Get(ctx context.Context, guildID, userID string, action models.Action) (*models.Punishment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[punishmentMapKey(guildID, userID, action)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memPunishmentStore) ListWithExpiry(ctx context.Context) ([]models.Punishment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Punishment
	for _, p := range s.rows {
		if p.ExpiresAt != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPunishmentStore) ListAll(ctx context.Context) ([]models.Punishment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Punishment
	for _, p := range s.rows {
		out = append(out, p)
	}
	return out, nil
}

func (s *memPunishmentStore) Delete(ctx context.Context, guildID, userID string, action models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, punishmentMapKey(guildID, userID, action))
	return nil
}

func (s *memPunishmentStore) has(guildID, userID string, action models.Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[punishmentMapKey(guildID, userID, action)]
	return ok
}

// fakeEnforcer records enforcement calls and can be told to fail
type fakeEnforcer struct {
	mu          sync.Mutex
	muted       map[string]bool
	banned      map[string]bool
	calls       []string
	enforcement error
}

func newFakeEnforcer() *fakeEnforcer {
	return &fakeEnforcer{
		muted:  make(map[string]bool),
		banned: make(map[string]bool),
	}
}

func (f *fakeEnforcer) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeEnforcer) ApplyMuteRole(guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("mute:" + userID)
	if f.enforcement != nil {
		return f.enforcement
	}
	f.muted[guildID+"/"+userID] = true
	return nil
}

func (f *fakeEnforcer) RemoveMuteRole(guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unmute:" + userID)
	if f.enforcement != nil {
		return f.enforcement
	}
	delete(f.muted, guildID+"/"+userID)
	return nil
}

func (f *fakeEnforcer) ClearTimeout(guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cleartimeout:" + userID)
	return nil
}

func (f *fakeEnforcer) Ban(guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ban:" + userID)
	if f.enforcement != nil {
		return f.enforcement
	}
	f.banned[guildID+"/"+userID] = true
	return nil
}

func (f *fakeEnforcer) Unban(guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unban:" + userID)
	if f.enforcement != nil {
		return f.enforcement
	}
	delete(f.banned, guildID+"/"+userID)
	return nil
}

func (f *fakeEnforcer) IsBanned(guildID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[guildID+"/"+userID], nil
}

func (f *fakeEnforcer) Notify(guildID, message string) {}

func (f *fakeEnforcer) isMuted(guildID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted[guildID+"/"+userID]
}

func (f *fakeEnforcer) isBannedNow(guildID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[guildID+"/"+userID]
}

func (f *fakeEnforcer) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// newTestEngine wires an engine over the in-memory fakes
func newTestEngine() (*Engine, *memWarningStore, *memPunishmentStore, *fakeEnforcer) {
	warnings := &memWarningStore{}
	punishments := newMemPunishmentStore()
	enforcer := newFakeEnforcer()
	engine := NewEngine(warnings, punishments, enforcer, DefaultPolicy())
	return engine, warnings, punishments, enforcer
}

func warnTimes(t *testing.T, e *Engine, guildID, userID string, n int) int {
	t.Helper()
	count := 0
	for i := 0; i < n; i++ {
		var err error
		count, err = e.Warn(context.Background(), guildID, userID, "mod1", fmt.Sprintf("razón %d", i+1))
		if err != nil {
			t.Fatalf("Warn #%d falló: %v", i+1, err)
		}
	}
	return count
}

// TestWarnBelowThreshold verifies that two warnings punish nothing
func TestWarnBelowThreshold(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	count := warnTimes(t, engine, "g1", "u1", 2)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if punishments.has("g1", "u1", models.ActionMute) {
		t.Error("no debería existir castigo con 2 advertencias")
	}
	if enforcer.isMuted("g1", "u1") {
		t.Error("el usuario no debería estar silenciado")
	}
}

// TestWarnThresholdMutes verifies escalation at the third warning
func TestWarnThresholdMutes(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	warnTimes(t, engine, "g1", "u1", 3)

	if !enforcer.isMuted("g1", "u1") {
		t.Fatal("el usuario debería estar silenciado con 3 advertencias")
	}
	if !punishments.has("g1", "u1", models.ActionMute) {
		t.Fatal("falta la fila de castigo de mute")
	}

	p, _ := punishments.Get(context.Background(), "g1", "u1", models.ActionMute)
	if p.ExpiresAt == nil {
		t.Fatal("el mute de 3 advertencias debe tener expiración")
	}
	wantExpiry := time.Now().Add(1 * time.Hour)
	if diff := p.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiración %v demasiado lejos de +1h", p.ExpiresAt)
	}

	if engine.Scheduler().Len() != 1 {
		t.Errorf("Scheduler().Len() = %d, want 1", engine.Scheduler().Len())
	}
}

// TestWarnEscalationExtendsMute verifies that reaching a higher threshold
// while a shorter mute is still active extends the expiry instead of keeping
// the old one
func TestWarnEscalationExtendsMute(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	// The fourth warning lands inside the first hour of the count-3 mute
	warnTimes(t, engine, "g1", "u1", 4)

	p, _ := punishments.Get(context.Background(), "g1", "u1", models.ActionMute)
	if p == nil || p.ExpiresAt == nil {
		t.Fatal("falta la fila de mute con expiración")
	}
	wantExpiry := time.Now().Add(12 * time.Hour)
	if diff := p.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("con 4 advertencias la expiración %v debe quedar a ~12h", p.ExpiresAt)
	}

	// The role is applied once; only the row and the timer move
	if got := enforcer.callCount("mute:u1"); got != 1 {
		t.Errorf("ApplyMuteRole se llamó %d veces, want 1", got)
	}
	if engine.Scheduler().Len() != 1 {
		t.Errorf("Scheduler().Len() = %d, want 1", engine.Scheduler().Len())
	}

	// Walking the rest of the mute table keeps extending the same row
	warnTimes(t, engine, "g1", "u1", 3)

	p, _ = punishments.Get(context.Background(), "g1", "u1", models.ActionMute)
	wantExpiry = time.Now().Add(672 * time.Hour)
	if diff := p.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("con 7 advertencias la expiración %v debe quedar a ~672h", p.ExpiresAt)
	}
	if got := enforcer.callCount("mute:u1"); got != 1 {
		t.Errorf("ApplyMuteRole se llamó %d veces tras escalar, want 1", got)
	}
	if engine.Scheduler().Len() != 1 {
		t.Errorf("Scheduler().Len() = %d tras escalar, want 1", engine.Scheduler().Len())
	}
}

// TestWarnEighthBansPermanently verifies the permanent ban threshold
func TestWarnEighthBansPermanently(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	warnTimes(t, engine, "g1", "u1", 8)

	if !enforcer.isBannedNow("g1", "u1") {
		t.Fatal("el usuario debería estar baneado con 8 advertencias")
	}

	p, _ := punishments.Get(context.Background(), "g1", "u1", models.ActionBan)
	if p == nil {
		t.Fatal("falta la fila de castigo de ban")
	}
	if p.ExpiresAt != nil {
		t.Error("el ban permanente no debe tener expiración")
	}
	if !p.Permanent() {
		t.Error("Permanent() = false para un ban sin expiración")
	}

	// Permanent punishments hold no timer (mute timers may remain)
	rows, _ := punishments.ListWithExpiry(context.Background())
	for _, row := range rows {
		if row.Action == models.ActionBan {
			t.Error("el ban no debería aparecer entre los castigos con expiración")
		}
	}
}

// TestActivePunishmentsIncludesPermanent verifies that the stats listing
// carries permanent bans alongside timed mutes
func TestActivePunishmentsIncludesPermanent(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Shutdown()

	warnTimes(t, engine, "g1", "u1", 8)

	rows, err := engine.ActivePunishments(context.Background())
	if err != nil {
		t.Fatalf("ActivePunishments falló: %v", err)
	}

	var mutes, bans int
	for _, p := range rows {
		switch p.Action {
		case models.ActionMute:
			mutes++
		case models.ActionBan:
			bans++
			if !p.Permanent() {
				t.Error("el ban listado debe ser permanente")
			}
		}
	}
	if mutes != 1 {
		t.Errorf("mutes listados = %d, want 1", mutes)
	}
	if bans != 1 {
		t.Errorf("bans listados = %d, want 1 (el ban permanente no puede omitirse)", bans)
	}
}

// TestApplyPunishmentIdempotent verifies that re-landing on an active
// threshold neither re-enforces nor extends the punishment
func TestApplyPunishmentIdempotent(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	warnTimes(t, engine, "g1", "u1", 3)
	original, _ := punishments.Get(context.Background(), "g1", "u1", models.ActionMute)

	if err := engine.ApplyPunishment(context.Background(), "g1", "u1", 3); err != nil {
		t.Fatalf("ApplyPunishment falló: %v", err)
	}

	if got := enforcer.callCount("mute:u1"); got != 1 {
		t.Errorf("ApplyMuteRole se llamó %d veces, want 1", got)
	}

	after, _ := punishments.Get(context.Background(), "g1", "u1", models.ActionMute)
	if !after.ExpiresAt.Equal(*original.ExpiresAt) {
		t.Error("la expiración original no debe cambiar al reaplicar")
	}
}

// TestDeleteLatestWarningReversesMute verifies the drop-below-threshold rule
func TestDeleteLatestWarningReversesMute(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	warnTimes(t, engine, "g1", "u1", 3)

	removed, count, err := engine.DeleteLatestWarning(context.Background(), "g1", "u1")
	if err != nil {
		t.Fatalf("DeleteLatestWarning falló: %v", err)
	}
	if !removed || count != 2 {
		t.Fatalf("removed=%v count=%d, want true/2", removed, count)
	}

	if enforcer.isMuted("g1", "u1") {
		t.Error("el mute debe revertirse al caer por debajo del umbral")
	}
	if punishments.has("g1", "u1", models.ActionMute) {
		t.Error("la fila de mute debe borrarse al revertir")
	}
	if engine.Scheduler().Len() != 0 {
		t.Errorf("Scheduler().Len() = %d tras revertir, want 0", engine.Scheduler().Len())
	}
}

// TestDeleteLatestWarningKeepsActivePunishment verifies that falling from a
// non-threshold count onto an active threshold is a no-op
func TestDeleteLatestWarningKeepsActivePunishment(t *testing.T) {
	engine, _, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	// 4 warnings leave a 12h mute row imposed by the fourth threshold
	warnTimes(t, engine, "g1", "u1", 4)

	removed, count, err := engine.DeleteLatestWarning(context.Background(), "g1", "u1")
	if err != nil {
		t.Fatalf("DeleteLatestWarning falló: %v", err)
	}
	if !removed || count != 3 {
		t.Fatalf("removed=%v count=%d, want true/3", removed, count)
	}

	// Count 3 is still a threshold: mute stays active, no re-enforcement,
	// and the 12h expiry does not shrink back to 1h
	if !enforcer.isMuted("g1", "u1") {
		t.Error("el mute debe seguir activo en el umbral de 3")
	}
	if !punishments.has("g1", "u1", models.ActionMute) {
		t.Error("la fila de mute debe conservarse")
	}
	if got := enforcer.callCount("mute:u1"); got != 1 {
		t.Errorf("ApplyMuteRole se llamó %d veces, want 1", got)
	}

	p, _ := punishments.Get(context.Background(), "g1", "u1", models.ActionMute)
	wantExpiry := time.Now().Add(12 * time.Hour)
	if diff := p.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiración %v tras borrar, want ~12h (no debe encoger)", p.ExpiresAt)
	}
}

// TestDeleteLatestWarningEmptyLedger verifies the no-warnings edge case
func TestDeleteLatestWarningEmptyLedger(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Shutdown()

	removed, count, err := engine.DeleteLatestWarning(context.Background(), "g1", "u1")
	if err != nil {
		t.Fatalf("DeleteLatestWarning falló: %v", err)
	}
	if removed || count != 0 {
		t.Errorf("removed=%v count=%d, want false/0", removed, count)
	}
}

// TestClearAllWarningsReversesEverything verifies the full clear path
func TestClearAllWarningsReversesEverything(t *testing.T) {
	engine, warnings, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	warnTimes(t, engine, "g1", "u1", 8)

	if err := engine.ClearAllWarnings(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("ClearAllWarnings falló: %v", err)
	}

	count, _ := warnings.CountFor(context.Background(), "g1", "u1")
	if count != 0 {
		t.Errorf("quedaron %d advertencias tras limpiar", count)
	}
	if enforcer.isMuted("g1", "u1") {
		t.Error("el mute debe revertirse al limpiar")
	}
	if enforcer.isBannedNow("g1", "u1") {
		t.Error("el ban debe revertirse al limpiar")
	}
	if punishments.has("g1", "u1", models.ActionMute) || punishments.has("g1", "u1", models.ActionBan) {
		t.Error("las filas de castigo deben borrarse al limpiar")
	}
	if engine.Scheduler().Len() != 0 {
		t.Errorf("Scheduler().Len() = %d tras limpiar, want 0", engine.Scheduler().Len())
	}
}

// TestClearAllWarningsIdempotent verifies clearing an empty state
func TestClearAllWarningsIdempotent(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Shutdown()

	if err := engine.ClearAllWarnings(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("ClearAllWarnings sobre estado vacío falló: %v", err)
	}
}

// TestWarnSurvivesEnforcementFailure verifies that the ledger is the source
// of truth even when Discord rejects the enforcement
func TestWarnSurvivesEnforcementFailure(t *testing.T) {
	engine, warnings, punishments, enforcer := newTestEngine()
	defer engine.Shutdown()

	enforcer.enforcement = ErrForbidden

	count := warnTimes(t, engine, "g1", "u1", 3)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	stored, _ := warnings.CountFor(context.Background(), "g1", "u1")
	if stored != 3 {
		t.Errorf("el libro registró %d advertencias, want 3", stored)
	}

	// The punishment row and timer exist even though the role never stuck
	if !punishments.has("g1", "u1", models.ActionMute) {
		t.Error("la fila de castigo debe persistirse aunque falle la aplicación")
	}
}

// TestWarnStoreFailurePropagates verifies that store errors reach the caller
func TestWarnStoreFailurePropagates(t *testing.T) {
	engine, warnings, _, _ := newTestEngine()
	defer engine.Shutdown()

	warnings.failAll = true

	if _, err := engine.Warn(context.Background(), "g1", "u1", "mod1", "razón"); err == nil {
		t.Fatal("Warn debe fallar cuando el store falla")
	}
}

// TestExpiryReversesAutomatically verifies the timer-driven reversal
func TestExpiryReversesAutomatically(t *testing.T) {
	warnings := &memWarningStore{}
	punishments := newMemPunishmentStore()
	enforcer := newFakeEnforcer()

	// A policy with a near-immediate mute keeps the test fast
	policy := Policy{1: {Action: models.ActionMute, Duration: 30 * time.Millisecond}}
	engine := NewEngine(warnings, punishments, enforcer, policy)
	defer engine.Shutdown()

	if _, err := engine.Warn(context.Background(), "g1", "u1", "mod1", "razón"); err != nil {
		t.Fatalf("Warn falló: %v", err)
	}
	if !enforcer.isMuted("g1", "u1") {
		t.Fatal("el usuario debería estar silenciado")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !enforcer.isMuted("g1", "u1") && !punishments.has("g1", "u1", models.ActionMute) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("la expiración no revirtió el mute a tiempo")
}

// TestExpiryRaceWithRemoval verifies that a timer firing while the warnings
// are being removed leaves no orphan row and reverses the mute exactly once
func TestExpiryRaceWithRemoval(t *testing.T) {
	for i := 0; i < 20; i++ {
		warnings := &memWarningStore{}
		punishments := newMemPunishmentStore()
		enforcer := newFakeEnforcer()
		policy := Policy{1: {Action: models.ActionMute, Duration: 5 * time.Millisecond}}
		engine := NewEngine(warnings, punishments, enforcer, policy)

		if _, err := engine.Warn(context.Background(), "g1", "u1", "mod1", "razón"); err != nil {
			t.Fatalf("iteración %d: Warn falló: %v", i, err)
		}

		// Sweep the removal across the expiry so either side can win
		time.Sleep(time.Duration(i%10) * time.Millisecond)
		if i%2 == 0 {
			if _, _, err := engine.DeleteLatestWarning(context.Background(), "g1", "u1"); err != nil {
				t.Fatalf("iteración %d: DeleteLatestWarning falló: %v", i, err)
			}
		} else {
			if err := engine.ClearAllWarnings(context.Background(), "g1", "u1"); err != nil {
				t.Fatalf("iteración %d: ClearAllWarnings falló: %v", i, err)
			}
		}

		// An in-flight timer callback may still run its no-op
		time.Sleep(30 * time.Millisecond)

		if punishments.has("g1", "u1", models.ActionMute) {
			t.Fatalf("iteración %d: quedó una fila de mute huérfana", i)
		}
		if enforcer.isMuted("g1", "u1") {
			t.Fatalf("iteración %d: el usuario sigue silenciado", i)
		}
		if got := enforcer.callCount("unmute:u1"); got != 1 {
			t.Fatalf("iteración %d: RemoveMuteRole se llamó %d veces, want 1", i, got)
		}
		engine.Shutdown()
	}
}

// TestRecoverReschedulesTimers verifies startup recovery from the table
func TestRecoverReschedulesTimers(t *testing.T) {
	warnings := &memWarningStore{}
	punishments := newMemPunishmentStore()
	enforcer := newFakeEnforcer()
	engine := NewEngine(warnings, punishments, enforcer, DefaultPolicy())
	defer engine.Shutdown()

	future := time.Now().Add(1 * time.Hour)
	past := time.Now().Add(-1 * time.Hour)
	punishments.Upsert(context.Background(), &models.Punishment{GuildID: "g1", UserID: "u1", Action: models.ActionMute, ExpiresAt: &future})
	punishments.Upsert(context.Background(), &models.Punishment{GuildID: "g1", UserID: "u2", Action: models.ActionMute, ExpiresAt: &past})
	punishments.Upsert(context.Background(), &models.Punishment{GuildID: "g1", UserID: "u3", Action: models.ActionBan})

	recovered, err := engine.Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover falló: %v", err)
	}
	if recovered != 2 {
		t.Errorf("Recover devolvió %d, want 2", recovered)
	}

	// The expired row fires immediately and deletes itself
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !punishments.has("g1", "u2", models.ActionMute) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if punishments.has("g1", "u2", models.ActionMute) {
		t.Fatal("la fila expirada debe revertirse inmediatamente tras Recover")
	}

	// The future row keeps its timer; the permanent ban never gets one
	if !punishments.has("g1", "u1", models.ActionMute) {
		t.Error("la fila futura debe seguir activa")
	}
	if engine.Scheduler().Len() != 1 {
		t.Errorf("Scheduler().Len() = %d tras Recover, want 1", engine.Scheduler().Len())
	}
	if !punishments.has("g1", "u3", models.ActionBan) {
		t.Error("el ban permanente debe sobrevivir a Recover")
	}
}

// TestEventsEmitted verifies the lifecycle event stream
func TestEventsEmitted(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Shutdown()

	var mu sync.Mutex
	seen := make(map[EventType]int)
	done := make(chan struct{}, 32)
	engine.SetEventSink(sinkFunc(func(ev Event) {
		mu.Lock()
		seen[ev.Type]++
		mu.Unlock()
		done <- struct{}{}
	}))

	warnTimes(t, engine, "g1", "u1", 3)

	// 3 warned + 1 punished, published asynchronously
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("faltan eventos del ciclo de vida")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[EventWarned] != 3 {
		t.Errorf("eventos warned = %d, want 3", seen[EventWarned])
	}
	if seen[EventPunished] != 1 {
		t.Errorf("eventos punished = %d, want 1", seen[EventPunished])
	}
}

// sinkFunc adapts a function to the EventSink interface
type sinkFunc func(Event)

func (f sinkFunc) PublishModerationEvent(ev Event) { f(ev) }
