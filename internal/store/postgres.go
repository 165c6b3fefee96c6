package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/rawblock/abacus/internal/committeesession"
	"github.com/rawblock/abacus/internal/dataentry"
	"github.com/rawblock/abacus/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is the production Store, backed by a pgx connection pool
// over the election schema's normalised rows.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens the pool and verifies connectivity, failing fast if the
// database is unreachable.
func Connect(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	log.Info().Msg("connected to PostgreSQL")
	return &PostgresStore{pool: pool}, nil
}

// InitSchema creates every table this store needs if they don't already
// exist. The DDL is embedded at compile time rather than read from disk
// so the binary doesn't depend on its working directory.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}
	log.Info().Msg("abacus schema initialized")
	return nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Begin starts a pgx transaction and wraps it as the Tx every core
// operation transacts through.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *postgresTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Election loads an election and its political groups/candidates.
// Elections are small and immutable once imported, so this is read in
// full rather than paginated.
func (t *postgresTx) Election(ctx context.Context, id domain.ElectionID) (domain.Election, error) {
	var e domain.Election
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, category, election_date, number_of_seats, counting_method
		FROM election WHERE id = $1`, int64(id)).Scan(
		&e.ID, &e.Name, &e.Category, &e.ElectionDate, &e.NumberOfSeats, &e.CountingMethod)
	if err != nil {
		return domain.Election{}, err
	}

	rows, err := t.tx.Query(ctx, `
		SELECT number, name FROM political_group WHERE election_id = $1 ORDER BY number`, int64(id))
	if err != nil {
		return domain.Election{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var pg domain.PoliticalGroup
		if err := rows.Scan(&pg.Number, &pg.Name); err != nil {
			return domain.Election{}, err
		}
		candRows, err := t.tx.Query(ctx, `
			SELECT number, first_name, last_name, locality_of FROM candidate
			WHERE election_id = $1 AND political_group_number = $2 ORDER BY number`, int64(id), pg.Number)
		if err != nil {
			return domain.Election{}, err
		}
		for candRows.Next() {
			var c domain.Candidate
			if err := candRows.Scan(&c.Number, &c.FirstName, &c.LastName, &c.LocalityOf); err != nil {
				candRows.Close()
				return domain.Election{}, err
			}
			pg.Candidates = append(pg.Candidates, c)
		}
		candRows.Close()
		if err := candRows.Err(); err != nil {
			return domain.Election{}, err
		}
		e.PoliticalGroups = append(e.PoliticalGroups, pg)
	}
	if err := rows.Err(); err != nil {
		return domain.Election{}, err
	}

	return e, nil
}

// LockPollingStation acquires a row-level lock on the station so that two
// concurrent transactions never observe the same entry state during a
// finalise race.
func (t *postgresTx) LockPollingStation(ctx context.Context, id domain.PollingStationID) (domain.PollingStation, error) {
	var station domain.PollingStation
	var prevSession *int64
	var numberOfVoters *int32
	var stationType *string
	row := t.tx.QueryRow(ctx, `
		SELECT id, committee_session_id, number, name, address, number_of_voters, type, id_prev_session
		FROM polling_station WHERE id = $1 FOR UPDATE`, int64(id))
	err := row.Scan(&station.ID, &station.CommitteeSession, &station.Number, &station.Name, &station.Address, &numberOfVoters, &stationType, &prevSession)
	if err != nil {
		return domain.PollingStation{}, err
	}
	if numberOfVoters != nil {
		n := int(*numberOfVoters)
		station.NumberOfVoters = &n
	}
	station.Type = stationType
	if prevSession != nil {
		p := domain.PollingStationID(*prevSession)
		station.IDPrevSession = &p
	}
	return station, nil
}

// LockCommitteeSession acquires a row-level lock on the committee session
// so that status transitions are serialised per session.
func (t *postgresTx) LockCommitteeSession(ctx context.Context, id domain.CommitteeSessionID) (domain.CommitteeSession, error) {
	var session domain.CommitteeSession
	var eml, pdf, overview *int64
	row := t.tx.QueryRow(ctx, `
		SELECT id, election_id, number, status, location, start_date_time, number_of_voters,
		       results_eml_file_id, results_pdf_file_id, overview_pdf_file_id
		FROM committee_session WHERE id = $1 FOR UPDATE`, int64(id))
	err := row.Scan(&session.ID, &session.ElectionID, &session.Number, &session.Status, &session.Location,
		&session.StartDateTime, &session.NumberOfVoters, &eml, &pdf, &overview)
	if err != nil {
		return domain.CommitteeSession{}, err
	}
	session.ResultsEML = fileIDPtr(eml)
	session.ResultsPDF = fileIDPtr(pdf)
	session.OverviewPDF = fileIDPtr(overview)
	return session, nil
}

func fileIDPtr(v *int64) *domain.FileID {
	if v == nil {
		return nil
	}
	f := domain.FileID(*v)
	return &f
}

// entryStatusRow is the JSONB-serialised form of dataentry.DataEntryStatus
// persisted per (polling_station, committee_session). PollingStationResults
// is an interface, so its concrete variant is captured alongside the data
// for unmarshalling.
type entryStatusRow struct {
	Status          dataentry.Status `json:"status"`
	FirstEntryUser  *int64           `json:"first_entry_user_id,omitempty"`
	FirstEntryKind  string           `json:"first_entry_kind,omitempty"`
	FirstEntry      json.RawMessage  `json:"first_entry,omitempty"`
	SecondEntryUser *int64           `json:"second_entry_user_id,omitempty"`
	SecondEntryKind string           `json:"second_entry_kind,omitempty"`
	SecondEntry     json.RawMessage  `json:"second_entry,omitempty"`
}

func (t *postgresTx) EntryStatus(ctx context.Context, station domain.PollingStationID) (dataentry.DataEntryStatus, error) {
	var raw []byte
	err := t.tx.QueryRow(ctx, `SELECT state FROM data_entry_status WHERE polling_station_id = $1`, int64(station)).Scan(&raw)
	if err == pgx.ErrNoRows {
		return dataentry.New(), nil
	}
	if err != nil {
		return dataentry.DataEntryStatus{}, err
	}
	var row entryStatusRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return dataentry.DataEntryStatus{}, err
	}
	return decodeEntryStatus(row)
}

func (t *postgresTx) SaveEntryStatus(ctx context.Context, station domain.PollingStationID, status dataentry.DataEntryStatus) error {
	row, err := encodeEntryStatus(status)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO data_entry_status (polling_station_id, state)
		VALUES ($1, $2)
		ON CONFLICT (polling_station_id) DO UPDATE SET state = EXCLUDED.state`,
		int64(station), raw)
	return err
}

// encodeEntryStatus and decodeEntryStatus translate between the
// dataentry package's in-memory sum type and its JSONB row shape. Results
// are marshalled with encoding/json's default encoding of the concrete
// variant (the variants carry no json tags); only four variants exist, so a small type switch is the simplest
// discriminated-union codec rather than a generic registry.
func encodeEntryStatus(d dataentry.DataEntryStatus) (entryStatusRow, error) {
	row := entryStatusRow{Status: d.Status}
	if d.FirstEntryUserID != nil {
		v := int64(*d.FirstEntryUserID)
		row.FirstEntryUser = &v
	}
	if d.SecondEntryUserID != nil {
		v := int64(*d.SecondEntryUserID)
		row.SecondEntryUser = &v
	}
	if d.FirstEntry != nil {
		kind, raw, err := encodeResults(d.FirstEntry)
		if err != nil {
			return entryStatusRow{}, err
		}
		row.FirstEntryKind, row.FirstEntry = kind, raw
	}
	if d.SecondEntry != nil {
		kind, raw, err := encodeResults(d.SecondEntry)
		if err != nil {
			return entryStatusRow{}, err
		}
		row.SecondEntryKind, row.SecondEntry = kind, raw
	}
	return row, nil
}

func decodeEntryStatus(row entryStatusRow) (dataentry.DataEntryStatus, error) {
	d := dataentry.DataEntryStatus{Status: row.Status}
	if row.FirstEntryUser != nil {
		v := domain.UserID(*row.FirstEntryUser)
		d.FirstEntryUserID = &v
	}
	if row.SecondEntryUser != nil {
		v := domain.UserID(*row.SecondEntryUser)
		d.SecondEntryUserID = &v
	}
	if row.FirstEntryKind != "" {
		r, err := decodeResults(row.FirstEntryKind, row.FirstEntry)
		if err != nil {
			return dataentry.DataEntryStatus{}, err
		}
		d.FirstEntry = r
	}
	if row.SecondEntryKind != "" {
		r, err := decodeResults(row.SecondEntryKind, row.SecondEntry)
		if err != nil {
			return dataentry.DataEntryStatus{}, err
		}
		d.SecondEntry = r
	}
	return d, nil
}

func encodeResults(r domain.PollingStationResults) (kind string, raw json.RawMessage, err error) {
	switch v := r.(type) {
	case domain.CSOFirstSession:
		raw, err = json.Marshal(v)
		return "cso_first", raw, err
	case domain.CSONextSession:
		raw, err = json.Marshal(v)
		return "cso_next", raw, err
	case domain.DSOFirstSession:
		raw, err = json.Marshal(v)
		return "dso_first", raw, err
	case domain.DSONextSession:
		raw, err = json.Marshal(v)
		return "dso_next", raw, err
	default:
		return "", nil, fmt.Errorf("store: unknown PollingStationResults variant %T", r)
	}
}

func decodeResults(kind string, raw json.RawMessage) (domain.PollingStationResults, error) {
	switch kind {
	case "cso_first":
		var v domain.CSOFirstSession
		err := json.Unmarshal(raw, &v)
		return v, err
	case "cso_next":
		var v domain.CSONextSession
		err := json.Unmarshal(raw, &v)
		return v, err
	case "dso_first":
		var v domain.DSOFirstSession
		err := json.Unmarshal(raw, &v)
		return v, err
	case "dso_next":
		var v domain.DSONextSession
		err := json.Unmarshal(raw, &v)
		return v, err
	default:
		return nil, fmt.Errorf("store: unknown PollingStationResults kind %q", kind)
	}
}

func (t *postgresTx) SaveCommitteeSession(ctx context.Context, session domain.CommitteeSession) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO committee_session (id, election_id, number, status, location, start_date_time, number_of_voters,
			results_eml_file_id, results_pdf_file_id, overview_pdf_file_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status,
			results_eml_file_id = EXCLUDED.results_eml_file_id,
			results_pdf_file_id = EXCLUDED.results_pdf_file_id,
			overview_pdf_file_id = EXCLUDED.overview_pdf_file_id`,
		int64(session.ID), int64(session.ElectionID), session.Number, session.Status, session.Location,
		session.StartDateTime, session.NumberOfVoters,
		optionalFileID(session.ResultsEML), optionalFileID(session.ResultsPDF), optionalFileID(session.OverviewPDF))
	return err
}

func optionalFileID(f *domain.FileID) *int64 {
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

func (t *postgresTx) PollingStationsOf(ctx context.Context, session domain.CommitteeSessionID) ([]domain.PollingStation, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, committee_session_id, number, name, address, number_of_voters, type, id_prev_session
		FROM polling_station WHERE committee_session_id = $1 ORDER BY number`, int64(session))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PollingStation
	for rows.Next() {
		var st domain.PollingStation
		var numberOfVoters *int32
		var stationType *string
		var prevSession *int64
		if err := rows.Scan(&st.ID, &st.CommitteeSession, &st.Number, &st.Name, &st.Address, &numberOfVoters, &stationType, &prevSession); err != nil {
			return nil, err
		}
		if numberOfVoters != nil {
			n := int(*numberOfVoters)
			st.NumberOfVoters = &n
		}
		st.Type = stationType
		if prevSession != nil {
			p := domain.PollingStationID(*prevSession)
			st.IDPrevSession = &p
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (t *postgresTx) Result(station domain.PollingStationID) (domain.PollingStationResults, bool, error) {
	ctx := context.Background()
	var kind string
	var raw json.RawMessage
	err := t.tx.QueryRow(ctx, `
		SELECT kind, data FROM definitive_result WHERE polling_station_id = $1`, int64(station)).Scan(&kind, &raw)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r, err := decodeResults(kind, raw)
	return r, err == nil, err
}

// PersistDefinitiveResult writes the result data a DataEntryStatus held
// just before collapsing into Definitive, since that variant itself
// carries no entry data to read back later.
func (t *postgresTx) PersistDefinitiveResult(ctx context.Context, station domain.PollingStationID, results domain.PollingStationResults) error {
	kind, raw, err := encodeResults(results)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO definitive_result (polling_station_id, kind, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (polling_station_id) DO UPDATE SET kind = EXCLUDED.kind, data = EXCLUDED.data`,
		int64(station), kind, raw)
	return err
}

// DeleteDefinitiveResult removes the materialised result row for station,
// if any; deleting a row that does not exist is not an error.
func (t *postgresTx) DeleteDefinitiveResult(ctx context.Context, station domain.PollingStationID) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM definitive_result WHERE polling_station_id = $1`, int64(station))
	return err
}

func (t *postgresTx) Investigation(station domain.PollingStationID) (domain.Investigation, bool, error) {
	ctx := context.Background()
	var inv domain.Investigation
	var findings *string
	var corrected *bool
	err := t.tx.QueryRow(ctx, `
		SELECT polling_station_id, committee_session_id, reason, findings, corrected_results, created_at, updated_at
		FROM investigation WHERE polling_station_id = $1`, int64(station)).Scan(
		&inv.PollingStation, &inv.CommitteeSession, &inv.Reason, &findings, &corrected, &inv.CreatedAt, &inv.UpdatedAt)
	if err == pgx.ErrNoRows {
		return domain.Investigation{}, false, nil
	}
	if err != nil {
		return domain.Investigation{}, false, err
	}
	inv.Findings = findings
	inv.CorrectedResults = corrected
	return inv, true, nil
}

func (t *postgresTx) Station(id domain.PollingStationID) (domain.PollingStation, bool, error) {
	ctx := context.Background()
	st, err := t.LockPollingStation(ctx, id)
	if err == pgx.ErrNoRows {
		return domain.PollingStation{}, false, nil
	}
	if err != nil {
		return domain.PollingStation{}, false, err
	}
	return st, true, nil
}

func (t *postgresTx) SaveInvestigation(ctx context.Context, inv domain.Investigation) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO investigation (polling_station_id, committee_session_id, reason, findings, corrected_results, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (polling_station_id, committee_session_id) DO UPDATE SET
			reason = EXCLUDED.reason, findings = EXCLUDED.findings,
			corrected_results = EXCLUDED.corrected_results, updated_at = EXCLUDED.updated_at`,
		int64(inv.PollingStation), int64(inv.CommitteeSession), inv.Reason, inv.Findings, inv.CorrectedResults, inv.CreatedAt, inv.UpdatedAt)
	return err
}

func (t *postgresTx) RecordFileDeleted(ctx context.Context, event committeesession.FileDeletedEvent) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM result_file WHERE id = $1`, int64(event.FileID))
	return err
}

func (t *postgresTx) LastAuditEntry(ctx context.Context, subject string) (int64, string, bool, error) {
	var sequence int64
	var hash string
	err := t.tx.QueryRow(ctx, `
		SELECT sequence, hash FROM audit_log WHERE subject = $1 ORDER BY sequence DESC LIMIT 1`, subject).
		Scan(&sequence, &hash)
	if err == pgx.ErrNoRows {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}
	return sequence, hash, true, nil
}

func (t *postgresTx) AppendAuditEntry(ctx context.Context, entry AuditEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO audit_log (sequence, actor_user_id, action, subject, detail, hash, prev_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.Sequence, int64(entry.Actor), entry.Action, entry.Subject, entry.Detail, entry.Hash, entry.PrevHash)
	return err
}
