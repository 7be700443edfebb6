package internal

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGet       QueryType = iota // Retrieve an entry by key.
	QueryTHas                        // Check if a key exists.
	QueryTScan                       // Ordered range read over a key prefix.
	QueryTGetDBInfo                  // Retrieve metadata about the database underlying the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTHas:
		return "Has"
	case QueryTScan:
		return "Scan"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or StaleRead
type Query struct {
	Type   QueryType
	Key    string // Get, Has
	Prefix string // Scan
	After  string // Scan (exclusive lower bound)
	Limit  int    // Scan (<= 0 means no limit)
}

// QueryResult is the result of a QueryTGet operation.
// The results of the other queries are bool ([QueryTHas]), []db.KeyValue ([QueryTScan])
// and db.DatabaseInfo ([QueryTGetDBInfo]).
type QueryResult struct {
	Ok    bool
	Value []byte
}
