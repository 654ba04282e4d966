package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/models"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Querier is implemented by both *sql.DB and *sql.Tx, so the same query code
// runs in or out of a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the MySQL gym.Store.
type Store struct {
	db *sql.DB
}

var _ gym.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn in a READ COMMITTED transaction. Under REPEATABLE READ a count
// taken after SELECT ... FOR UPDATE could still come from the snapshot opened
// by an earlier read in the same transaction.
func (s *Store) InTx(ctx context.Context, fn func(gym.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(gym.Tx) error) error {
	return fn(&queries{q: s.db})
}

// translate maps driver errors onto the gym store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return gym.ErrNoRows
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", gym.ErrDuplicate, myErr.Message)
	}
	return err
}

// affected turns "0 rows affected" into gym.ErrNoRows.
func affected(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gym.ErrNoRows
	}
	return nil
}

type queries struct {
	q Querier
}

func (t *queries) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

//
// --- Users & memberships ---
//

func (t *queries) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := t.q.QueryRowContext(ctx, `
		SELECT id, nombre, email, rol, membresia_id, created_at, updated_at
		FROM usuarios WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.MembershipID, &u.CreatedAt, &u.UpdatedAt)
	return u, translate(err)
}

// LockUser serializes shift changes for one user.
func (t *queries) LockUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := t.q.QueryRowContext(ctx, `
		SELECT id, nombre, email, rol, membresia_id, created_at, updated_at
		FROM usuarios WHERE id = ?
		FOR UPDATE`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.MembershipID, &u.CreatedAt, &u.UpdatedAt)
	return u, translate(err)
}

func (t *queries) GetMembership(ctx context.Context, id int64) (models.Membership, error) {
	var (
		m    models.Membership
		desc sql.NullString
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT id, nombre, descripcion, precio, duracion_dias, created_at
		FROM membresias WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &desc, &m.Price, &m.DurationDays, &m.CreatedAt)
	m.Description = desc.String
	return m, translate(err)
}

func (t *queries) CountPaymentsBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	return t.count(ctx,
		"SELECT COUNT(*) FROM pagos WHERE usuario_id = ? AND fecha >= ? AND fecha < ?",
		userID, from, to)
}

//
// --- Classes ---
//

func (t *queries) InsertClass(ctx context.Context, c *models.Class) error {
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO clases (tipo, slug, descripcion, created_at) VALUES (?, ?, ?, ?)",
		c.Type, c.Slug, c.Description, c.CreatedAt)
	if err != nil {
		return translate(err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

const classColumns = "id, tipo, slug, COALESCE(descripcion, ''), created_at"

func scanClass(row interface{ Scan(...any) error }) (models.Class, error) {
	var c models.Class
	err := row.Scan(&c.ID, &c.Type, &c.Slug, &c.Description, &c.CreatedAt)
	return c, err
}

func (t *queries) GetClass(ctx context.Context, id int64) (models.Class, error) {
	c, err := scanClass(t.q.QueryRowContext(ctx, "SELECT "+classColumns+" FROM clases WHERE id = ?", id))
	return c, translate(err)
}

func (t *queries) ListClasses(ctx context.Context) ([]models.Class, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT "+classColumns+" FROM clases ORDER BY tipo")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []models.Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class row: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (t *queries) UpdateClass(ctx context.Context, c models.Class) error {
	// RowsAffected is 0 when nothing changed, so existence is checked by the caller.
	_, err := t.q.ExecContext(ctx,
		"UPDATE clases SET tipo = ?, slug = ?, descripcion = ? WHERE id = ?",
		c.Type, c.Slug, c.Description, c.ID)
	return translate(err)
}

func (t *queries) DeleteClass(ctx context.Context, id int64) error {
	return affected(t.q.ExecContext(ctx, "DELETE FROM clases WHERE id = ?", id))
}

func (t *queries) CountSessionsForClass(ctx context.Context, classID int64) (int, error) {
	return t.count(ctx, "SELECT COUNT(*) FROM sesiones WHERE clase_id = ?", classID)
}

//
// --- Sessions ---
//

const sessionColumns = `s.id, s.clase_id, c.tipo, s.fecha, s.hora_inicio, s.hora_fin,
	s.capacidad_maxima, s.created_at, s.updated_at`

func scanSession(row interface{ Scan(...any) error }, extra ...any) (models.Session, error) {
	var s models.Session
	dest := append([]any{
		&s.ID, &s.ClassID, &s.ClassType, &s.Date, &s.StartTime, &s.EndTime,
		&s.Capacity, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return s, err
}

func (t *queries) InsertSession(ctx context.Context, s *models.Session) error {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO sesiones (clase_id, fecha, hora_inicio, hora_fin, capacidad_maxima, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ClassID, s.Date, s.StartTime, s.EndTime, s.Capacity, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (t *queries) GetSession(ctx context.Context, id int64) (models.Session, error) {
	s, err := scanSession(t.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sesiones s JOIN clases c ON c.id = s.clase_id
		WHERE s.id = ?`, id))
	return s, translate(err)
}

// LockSession locks only the sesiones row; the clases row stays shared.
func (t *queries) LockSession(ctx context.Context, id int64) (models.Session, error) {
	s, err := scanSession(t.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sesiones s JOIN clases c ON c.id = s.clase_id
		WHERE s.id = ?
		FOR UPDATE OF s`, id))
	return s, translate(err)
}

func (t *queries) ListSessions(ctx context.Context, f gym.SessionFilter) ([]models.Session, error) {
	var (
		where []string
		args  []any
	)
	if f.ClassID != 0 {
		where = append(where, "s.clase_id = ?")
		args = append(args, f.ClassID)
	}
	if f.From != nil {
		where = append(where, "s.fecha >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "s.fecha <= ?")
		args = append(args, *f.To)
	}
	query := `
		SELECT ` + sessionColumns + `,
			(SELECT COUNT(*) FROM reservas r WHERE r.sesion_id = s.id) AS asistentes
		FROM sesiones s JOIN clases c ON c.id = s.clase_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY s.fecha, s.hora_inicio"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		var reserved int
		s, err := scanSession(rows, &reserved)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s.Fill(reserved)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (t *queries) UpdateSession(ctx context.Context, s models.Session) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE sesiones
		SET clase_id = ?, fecha = ?, hora_inicio = ?, hora_fin = ?, capacidad_maxima = ?, updated_at = ?
		WHERE id = ?`,
		s.ClassID, s.Date, s.StartTime, s.EndTime, s.Capacity, s.UpdatedAt, s.ID)
	return translate(err)
}

func (t *queries) DeleteSession(ctx context.Context, id int64) error {
	return affected(t.q.ExecContext(ctx, "DELETE FROM sesiones WHERE id = ?", id))
}

//
// --- Reservations ---
//

func (t *queries) CountReservations(ctx context.Context, sessionID int64) (int, error) {
	return t.count(ctx, "SELECT COUNT(*) FROM reservas WHERE sesion_id = ?", sessionID)
}

func (t *queries) HasReservation(ctx context.Context, userID, sessionID int64) (bool, error) {
	var exists bool
	err := t.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM reservas WHERE usuario_id = ? AND sesion_id = ?)",
		userID, sessionID).Scan(&exists)
	return exists, translate(err)
}

func (t *queries) InsertReservation(ctx context.Context, r *models.Reservation) error {
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO reservas (usuario_id, sesion_id, estado, created_at) VALUES (?, ?, ?, ?)",
		r.UserID, r.SessionID, r.Status, r.CreatedAt)
	if err != nil {
		return translate(err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (t *queries) GetReservation(ctx context.Context, id int64) (models.Reservation, error) {
	var r models.Reservation
	err := t.q.QueryRowContext(ctx,
		"SELECT id, usuario_id, sesion_id, estado, created_at FROM reservas WHERE id = ?", id).
		Scan(&r.ID, &r.UserID, &r.SessionID, &r.Status, &r.CreatedAt)
	return r, translate(err)
}

func (t *queries) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	return affected(t.q.ExecContext(ctx, "UPDATE reservas SET estado = ? WHERE id = ?", status, id))
}

func (t *queries) DeleteReservation(ctx context.Context, id int64) error {
	return affected(t.q.ExecContext(ctx, "DELETE FROM reservas WHERE id = ?", id))
}

func (t *queries) ListReservationsForSession(ctx context.Context, sessionID int64) ([]models.Reservation, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT r.id, r.usuario_id, r.sesion_id, r.estado, r.created_at, u.nombre
		FROM reservas r JOIN usuarios u ON u.id = r.usuario_id
		WHERE r.sesion_id = ?
		ORDER BY r.id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(&r.ID, &r.UserID, &r.SessionID, &r.Status, &r.CreatedAt, &r.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *queries) ListReservationsForUser(ctx context.Context, userID int64) ([]models.Reservation, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT r.id, r.usuario_id, r.sesion_id, r.estado, r.created_at, c.tipo, s.fecha, s.hora_inicio
		FROM reservas r
		JOIN sesiones s ON s.id = r.sesion_id
		JOIN clases c ON c.id = s.clase_id
		WHERE r.usuario_id = ?
		ORDER BY s.fecha, s.hora_inicio`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		var (
			r     models.Reservation
			date  models.Date
			start models.TimeOfDay
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.SessionID, &r.Status, &r.CreatedAt, &r.ClassType, &date, &start); err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		r.Date, r.StartTime = &date, &start
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *queries) DeleteReservationsForSession(ctx context.Context, sessionID int64) error {
	_, err := t.q.ExecContext(ctx, "DELETE FROM reservas WHERE sesion_id = ?", sessionID)
	return translate(err)
}

//
// --- Shifts & accesses ---
//

func (t *queries) LastShiftBetween(ctx context.Context, userID int64, from, to time.Time) (models.Shift, error) {
	var s models.Shift
	err := t.q.QueryRowContext(ctx, `
		SELECT id, usuario_id, tipo, fecha_hora
		FROM turnos
		WHERE usuario_id = ? AND fecha_hora >= ? AND fecha_hora < ?
		ORDER BY fecha_hora DESC, id DESC
		LIMIT 1`, userID, from, to).
		Scan(&s.ID, &s.UserID, &s.Type, &s.At)
	return s, translate(err)
}

func (t *queries) InsertShift(ctx context.Context, s *models.Shift) error {
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO turnos (usuario_id, tipo, fecha_hora) VALUES (?, ?, ?)",
		s.UserID, s.Type, s.At)
	if err != nil {
		return translate(err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (t *queries) ListShifts(ctx context.Context, userID int64, from, to time.Time) ([]models.Shift, error) {
	query := `
		SELECT t.id, t.usuario_id, t.tipo, t.fecha_hora, u.nombre
		FROM turnos t JOIN usuarios u ON u.id = t.usuario_id
		WHERE t.fecha_hora >= ? AND t.fecha_hora < ?`
	args := []any{from, to}
	if userID != 0 {
		query += " AND t.usuario_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY t.fecha_hora, t.id"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Shift{}
	for rows.Next() {
		var s models.Shift
		if err := rows.Scan(&s.ID, &s.UserID, &s.Type, &s.At, &s.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan shift row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *queries) InsertAccess(ctx context.Context, a *models.Access) error {
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO accesos (usuario_id, fecha_hora) VALUES (?, ?)", a.UserID, a.At)
	if err != nil {
		return translate(err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (t *queries) ListAccesses(ctx context.Context, userID int64, from, to time.Time) ([]models.Access, error) {
	query := "SELECT id, usuario_id, fecha_hora FROM accesos WHERE fecha_hora >= ? AND fecha_hora < ?"
	args := []any{from, to}
	if userID != 0 {
		query += " AND usuario_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY fecha_hora, id"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Access{}
	for rows.Next() {
		var a models.Access
		if err := rows.Scan(&a.ID, &a.UserID, &a.At); err != nil {
			return nil, fmt.Errorf("failed to scan access row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

//
// --- Notifications ---
//

// AddNotification must run inside the transaction of the event it reports.
func (t *queries) AddNotification(ctx context.Context, userID int64, message, link string) error {
	var nullLink sql.NullString
	if link != "" {
		nullLink = sql.NullString{String: link, Valid: true}
	}
	_, err := t.q.ExecContext(ctx,
		"INSERT INTO notificaciones (usuario_id, mensaje, enlace, leida) VALUES (?, ?, ?, 0)",
		userID, message, nullLink)
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}
