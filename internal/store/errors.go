package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEntityNotFound is returned by local repositories when no row exists
	// for the requested id, or the row is soft-deleted and deleted rows were
	// not requested.
	ErrEntityNotFound = errors.New("entity was not found")

	// ErrOutboxEntryNotFound is returned when an outbox update targets an
	// entry id that does not exist.
	ErrOutboxEntryNotFound = errors.New("outbox entry was not found")

	// ErrDocumentNotFound is returned by the document repository when the
	// (collection, id) pair does not exist or is soft-deleted.
	ErrDocumentNotFound = errors.New("document was not found")

	// ErrDocumentExists is returned when creating a document whose id is
	// already taken by a live document in the same collection.
	ErrDocumentExists = errors.New("document already exists")

	// ErrInvalidFilter is returned when a query filter references a field
	// name or operator that cannot be translated to SQL.
	ErrInvalidFilter = errors.New("invalid query filter")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
