// Package records implements the patient record registry on top of a store.IStore.
//
// A registry consists of two things kept in the same store:
//
//   - an id counter under the key "__id_counter", advanced with IStore.Increment.
//     The first issued id is 1 and ids are never reused, even after a delete.
//   - the record map. Every record lives under "record/<id>" where the id is zero
//     padded to 20 digits, so the key order of the store equals the numeric id order
//     and ListPatientRecords can page through the map with IStore.Scan.
//
// Records are stored msgpack encoded. Callers always receive copies.
//
// Errors:
//
// A lookup, update or delete of a missing id returns a *NotFoundError, which matches
// ErrNotFound with errors.Is. Every other error comes from the underlying store and
// aborts the call without modifying the registry.
//
// Usage:
//
//	svc := records.NewService(st)
//	rec, err := svc.AddPatientRecord(records.Payload{Name: "A", Complaint: "cough"})
//	// rec.ID == 1
//	_, err = svc.GetPatientRecord(42)
//	if errors.Is(err, records.ErrNotFound) {
//		...
//	}
package records
