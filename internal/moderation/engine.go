package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

// storeTimeout bounds durable-store calls made from timer goroutines, which
// have no caller context.
const storeTimeout = 10 * time.Second

// WarningStore is the durable warning ledger. It is the source of truth for
// warning counts; punishment state is derived from it.
type WarningStore interface {
	Insert(ctx context.Context, w *models.Warning) error
	CountFor(ctx context.Context, guildID, userID string) (int, error)
	ListFor(ctx context.Context, guildID, userID string) ([]models.Warning, error)
	MostRecentFor(ctx context.Context, guildID, userID string) (*models.Warning, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAllFor(ctx context.Context, guildID, userID string) (int64, error)
}

// PunishmentStore is the durable table of active punishments, keyed by
// (guild, user, action). Get returns nil without error when no row exists;
// Delete of a missing row is a no-op.
type PunishmentStore interface {
	Upsert(ctx context.Context, p *models.Punishment) error
	Get(ctx context.Context, guildID, userID string, action models.Action) (*models.Punishment, error)
	ListWithExpiry(ctx context.Context) ([]models.Punishment, error)
	ListAll(ctx context.Context) ([]models.Punishment, error)
	Delete(ctx context.Context, guildID, userID string, action models.Action) error
}

// Engine orquesta el ciclo de vida completo: advertencia añadida o eliminada
// -> consulta de la política -> aplicación o reversión del castigo -> tablas
// durables -> registro en el Scheduler. All mutations for one (guild, user)
// pair are serialized; store failures propagate to the caller while
// enforcement failures are logged and tolerated.
type Engine struct {
	warnings    WarningStore
	punishments PunishmentStore
	enforcer    Enforcer
	policy      Policy
	scheduler   *Scheduler
	sink        EventSink
	locks       keyedMutex
}

// NewEngine wires the engine with its collaborators. The scheduler is owned
// by the engine and fires back into it.
func NewEngine(warnings WarningStore, punishments PunishmentStore, enforcer Enforcer, policy Policy) *Engine {
	e := &Engine{
		warnings:    warnings,
		punishments: punishments,
		enforcer:    enforcer,
		policy:      policy,
	}
	e.scheduler = NewScheduler(e.reverseExpired)
	return e
}

// SetEventSink attaches a lifecycle event consumer. Must be called before the
// engine starts receiving traffic.
func (e *Engine) SetEventSink(sink EventSink) {
	e.sink = sink
}

// Scheduler exposes the timer registry for stats endpoints.
func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// Shutdown cancels all pending timers. Punishment rows stay in the table and
// are picked up again by Recover on the next start.
func (e *Engine) Shutdown() {
	e.scheduler.Stop()
}

func (e *Engine) emit(ev Event) {
	if e.sink == nil {
		return
	}
	go e.sink.PublishModerationEvent(ev)
}

// logEnforcement reports an enforcement-surface failure without propagating
// it. NotFound is not worth more than a debug line: the desired end state
// already holds.
func (e *Engine) logEnforcement(op, guildID, userID string, err error) {
	msg := fmt.Sprintf("%s para %s en %s: %v", op, userID, guildID, err)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Debug(msg, "Engine")
	case errors.Is(err, ErrForbidden):
		logger.Warn(msg, "Engine")
	default:
		logger.Error(msg, "Engine")
	}
}

// Warn appends a warning to the ledger, recomputes the count and escalates if
// the new count lands on a policy threshold. The warning is recorded even
// when the escalation cannot be enforced; only store failures are returned.
func (e *Engine) Warn(ctx context.Context, guildID, userID, moderatorID, reason string) (int, error) {
	unlock := e.locks.Lock(guildID, userID)
	defer unlock()

	w := &models.Warning{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	}
	if err := e.warnings.Insert(ctx, w); err != nil {
		return 0, fmt.Errorf("insert warning: %w", err)
	}

	count, err := e.warnings.CountFor(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("count warnings: %w", err)
	}

	ev := newEvent(EventWarned, guildID, userID)
	ev.Count = count
	e.emit(ev)

	if err := e.applyPunishment(ctx, guildID, userID, count); err != nil {
		return count, err
	}
	return count, nil
}

// DeleteLatestWarning removes the most recent warning (highest ID) and
// re-evaluates the punishment state for the remaining count. Returns false
// when the user had no warnings.
func (e *Engine) DeleteLatestWarning(ctx context.Context, guildID, userID string) (bool, int, error) {
	unlock := e.locks.Lock(guildID, userID)
	defer unlock()

	latest, err := e.warnings.MostRecentFor(ctx, guildID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("find latest warning: %w", err)
	}
	if latest == nil {
		return false, 0, nil
	}
	if err := e.warnings.DeleteByID(ctx, latest.ID); err != nil {
		return false, 0, fmt.Errorf("delete warning: %w", err)
	}

	count, err := e.warnings.CountFor(ctx, guildID, userID)
	if err != nil {
		return true, 0, fmt.Errorf("count warnings: %w", err)
	}

	ev := newEvent(EventWarningRemoved, guildID, userID)
	ev.Count = count
	e.emit(ev)

	// The remaining count may itself sit on a threshold; re-applying at the
	// same or a lower threshold is a no-op while that punishment is still
	// active. Afterwards check whether the count dropped low enough that
	// the mute is no longer justified.
	if err := e.applyPunishment(ctx, guildID, userID, count); err != nil {
		return true, count, err
	}
	if err := e.adjustAfterChange(ctx, guildID, userID, count); err != nil {
		return true, count, err
	}
	return true, count, nil
}

// ClearAllWarnings wipes the user's ledger for the guild and unconditionally
// reverses any active mute or ban, cancelling their timers. Idempotent when
// nothing is active.
func (e *Engine) ClearAllWarnings(ctx context.Context, guildID, userID string) error {
	unlock := e.locks.Lock(guildID, userID)
	defer unlock()

	if _, err := e.warnings.DeleteAllFor(ctx, guildID, userID); err != nil {
		return fmt.Errorf("clear warnings: %w", err)
	}

	if err := e.reverseNow(ctx, guildID, userID, models.ActionMute); err != nil {
		return err
	}
	if err := e.reverseNow(ctx, guildID, userID, models.ActionBan); err != nil {
		return err
	}

	e.emit(newEvent(EventWarningsCleared, guildID, userID))
	return nil
}

// ApplyPunishment re-evaluates the policy for an externally computed count.
// Exposed for callers that already hold a fresh count; normal traffic goes
// through Warn.
func (e *Engine) ApplyPunishment(ctx context.Context, guildID, userID string, count int) error {
	unlock := e.locks.Lock(guildID, userID)
	defer unlock()
	return e.applyPunishment(ctx, guildID, userID, count)
}

// applyPunishment escalates when count is an exact policy threshold. An
// active mute is overwritten when a higher threshold extends it; bans and
// re-entries on the same or a lower threshold are no-ops. Callers hold the
// per-key lock.
func (e *Engine) applyPunishment(ctx context.Context, guildID, userID string, count int) error {
	penalty, ok := e.policy.Lookup(count)
	if !ok {
		// Policy miss: counts between or above thresholds trigger nothing.
		return nil
	}

	var expiresAt *time.Time
	if !penalty.Permanent {
		t := time.Now().UTC().Add(penalty.Duration)
		expiresAt = &t
	}

	existing, err := e.punishments.Get(ctx, guildID, userID, penalty.Action)
	if err != nil {
		return fmt.Errorf("read punishment: %w", err)
	}
	if existing != nil {
		// Re-entry on the same or a lower threshold keeps the original
		// expiry and timer, so a removed warning that lands back on an
		// active threshold cannot extend the punishment or notify twice.
		// Bans never escalate further.
		if penalty.Action != models.ActionMute || expiresAt == nil || count <= existing.Count {
			return nil
		}
		return e.escalateMute(ctx, guildID, userID, count, penalty, *expiresAt)
	}

	switch penalty.Action {
	case models.ActionMute:
		// A native timeout would fight with the mute role; lift it first.
		if err := e.enforcer.ClearTimeout(guildID, userID); err != nil {
			e.logEnforcement("limpiar timeout", guildID, userID, err)
		}
		if err := e.enforcer.ApplyMuteRole(guildID, userID); err != nil {
			e.logEnforcement("aplicar rol de mute", guildID, userID, err)
		}
		e.enforcer.Notify(guildID, fmt.Sprintf("🔇 <@%s> ha sido silenciado por %s (advertencias: %d).", userID, penalty.Duration, count))

	case models.ActionBan:
		banned, err := e.enforcer.IsBanned(guildID, userID)
		if err != nil {
			e.logEnforcement("consultar ban", guildID, userID, err)
		}
		if banned {
			e.enforcer.Notify(guildID, fmt.Sprintf("⚠ <@%s> ya estaba baneado.", userID))
			return nil
		}
		if err := e.enforcer.Ban(guildID, userID, fmt.Sprintf("Alcanzó %d advertencias.", count)); err != nil {
			e.logEnforcement("banear", guildID, userID, err)
		}
		e.enforcer.Notify(guildID, fmt.Sprintf("⛔ <@%s> ha sido baneado permanentemente (advertencias: %d).", userID, count))
	}

	p := &models.Punishment{
		GuildID:   guildID,
		UserID:    userID,
		Action:    penalty.Action,
		Count:     count,
		ExpiresAt: expiresAt,
	}
	if err := e.punishments.Upsert(ctx, p); err != nil {
		return fmt.Errorf("persist punishment: %w", err)
	}
	if expiresAt != nil {
		e.scheduler.Schedule(guildID, userID, penalty.Action, *expiresAt)
	}

	ev := newEvent(EventPunished, guildID, userID)
	ev.Action = penalty.Action
	ev.Count = count
	ev.ExpiresAt = expiresAt
	e.emit(ev)
	return nil
}

// escalateMute moves an active mute to a higher threshold's expiry. Los
// advertidos 3→4→…→7 dentro de la primera hora deben terminar con el mute
// largo, no con el de 1h. The member already carries the role, so only the
// row and the timer change; Schedule replaces the previous timer under the
// same key. Callers hold the per-key lock.
func (e *Engine) escalateMute(ctx context.Context, guildID, userID string, count int, penalty Penalty, expiresAt time.Time) error {
	p := &models.Punishment{
		GuildID:   guildID,
		UserID:    userID,
		Action:    models.ActionMute,
		Count:     count,
		ExpiresAt: &expiresAt,
	}
	if err := e.punishments.Upsert(ctx, p); err != nil {
		return fmt.Errorf("persist punishment: %w", err)
	}
	e.scheduler.Schedule(guildID, userID, models.ActionMute, expiresAt)
	e.enforcer.Notify(guildID, fmt.Sprintf("🔇 El silencio de <@%s> se extiende a %s (advertencias: %d).", userID, penalty.Duration, count))

	ev := newEvent(EventPunished, guildID, userID)
	ev.Action = models.ActionMute
	ev.Count = count
	ev.ExpiresAt = &expiresAt
	e.emit(ev)
	return nil
}

// AdjustAfterChange reverses a mute that is no longer justified by the
// current count. Exposed for callers that already hold a fresh count.
func (e *Engine) AdjustAfterChange(ctx context.Context, guildID, userID string, count int) error {
	unlock := e.locks.Lock(guildID, userID)
	defer unlock()
	return e.adjustAfterChange(ctx, guildID, userID, count)
}

// adjustAfterChange implements the "punishment no longer justified" rule:
// below the lowest threshold an active mute is reversed unconditionally.
// Bans are only lifted by ClearAllWarnings or by expiry. Callers hold the
// per-key lock.
func (e *Engine) adjustAfterChange(ctx context.Context, guildID, userID string, count int) error {
	if count >= e.policy.MinThreshold() {
		return nil
	}
	return e.reverseNow(ctx, guildID, userID, models.ActionMute)
}

// reverseNow cancels the timer, undoes the external state and deletes the
// punishment row for one action. Missing rows and already-satisfied external
// state are tolerated. Callers hold the per-key lock.
func (e *Engine) reverseNow(ctx context.Context, guildID, userID string, action models.Action) error {
	e.scheduler.Cancel(guildID, userID, action)

	p, err := e.punishments.Get(ctx, guildID, userID, action)
	if err != nil {
		return fmt.Errorf("read punishment: %w", err)
	}

	switch action {
	case models.ActionMute:
		// The original timeout control is cleared even when no mute row
		// exists, so a manual timeout cannot linger past a clear.
		if err := e.enforcer.ClearTimeout(guildID, userID); err != nil {
			e.logEnforcement("limpiar timeout", guildID, userID, err)
		}
		if p == nil {
			return nil
		}
		if err := e.enforcer.RemoveMuteRole(guildID, userID); err != nil {
			e.logEnforcement("quitar rol de mute", guildID, userID, err)
		}
		e.enforcer.Notify(guildID, fmt.Sprintf("🔊 <@%s> ha sido desilenciado.", userID))

	case models.ActionBan:
		if p == nil {
			return nil
		}
		if err := e.enforcer.Unban(guildID, userID); err != nil {
			e.logEnforcement("desbanear", guildID, userID, err)
		}
		e.enforcer.Notify(guildID, fmt.Sprintf("🔓 <@%s> ha sido desbaneado.", userID))
	}

	if err := e.punishments.Delete(ctx, guildID, userID, action); err != nil {
		return fmt.Errorf("delete punishment: %w", err)
	}

	ev := newEvent(EventReversed, guildID, userID)
	ev.Action = action
	e.emit(ev)
	return nil
}

// reverseExpired is the scheduler's fire callback. It runs in the timer
// goroutine, takes the same per-key lock as the command paths and no-ops if
// the row was already removed by a concurrent cancel.
func (e *Engine) reverseExpired(guildID, userID string, action models.Action) {
	unlock := e.locks.Lock(guildID, userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	p, err := e.punishments.Get(ctx, guildID, userID, action)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo leer el castigo expirado de %s en %s: %v", userID, guildID, err), "Engine")
		return
	}
	if p == nil {
		// Cancelled while the timer was in flight.
		return
	}

	switch action {
	case models.ActionMute:
		if err := e.enforcer.RemoveMuteRole(guildID, userID); err != nil {
			// A vanished member or guild still gets its row deleted below,
			// otherwise the punishment would outlive its subject.
			e.logEnforcement("quitar rol de mute", guildID, userID, err)
		} else {
			e.enforcer.Notify(guildID, fmt.Sprintf("🔊 <@%s> ha sido desilenciado automáticamente.", userID))
		}
	case models.ActionBan:
		if err := e.enforcer.Unban(guildID, userID); err != nil {
			e.logEnforcement("desbanear", guildID, userID, err)
		} else {
			e.enforcer.Notify(guildID, fmt.Sprintf("🔓 <@%s> ha sido desbaneado automáticamente.", userID))
		}
	}

	if err := e.punishments.Delete(ctx, guildID, userID, action); err != nil {
		logger.Error(fmt.Sprintf("No se pudo borrar el castigo expirado de %s en %s: %v", userID, guildID, err), "Engine")
		return
	}

	ev := newEvent(EventReversed, guildID, userID)
	ev.Action = action
	e.emit(ev)
}

// Recover reconstruye los temporizadores perdidos en un reinicio: every
// punishment row with an expiry gets a timer with the delay recomputed from
// the absolute expiry (past expiries fire immediately). Permanent rows are
// left alone. Called once at startup, after the session is ready.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	rows, err := e.punishments.ListWithExpiry(ctx)
	if err != nil {
		return 0, fmt.Errorf("list punishments: %w", err)
	}
	for _, p := range rows {
		if p.ExpiresAt == nil {
			continue
		}
		e.scheduler.Schedule(p.GuildID, p.UserID, p.Action, *p.ExpiresAt)
	}
	logger.System(fmt.Sprintf("Recuperados %d castigos temporales pendientes", len(rows)), "Engine")
	return len(rows), nil
}

// ActivePunishments returns every punishment row, timed and permanent, for
// the stats endpoints.
func (e *Engine) ActivePunishments(ctx context.Context) ([]models.Punishment, error) {
	return e.punishments.ListAll(ctx)
}

// Warnings returns the recorded warnings for a member, oldest first.
func (e *Engine) Warnings(ctx context.Context, guildID, userID string) ([]models.Warning, error) {
	return e.warnings.ListFor(ctx, guildID, userID)
}

// WarningCount returns the current warning count for a member.
func (e *Engine) WarningCount(ctx context.Context, guildID, userID string) (int, error) {
	return e.warnings.CountFor(ctx, guildID, userID)
}
