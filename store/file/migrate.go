/*
migrate.go - Lazy schema upgrades for the flat-file stores

PURPOSE:
  The data directory has been through several on-disk generations:

    directory  v0: bare list of names             ["Alice", "Bob"]
               v1: object list, name-keyed extras {name, id, password,
                   role, annual_leave_balance}    (any field may be absent)
               v3: versioned envelope, balance extracted to the ledger
    attendance v1: bare row list keyed by employee_name (or employee_id)
               v2: versioned envelope keyed by employee_id
    ledger     v0: bare row list [{employee_id, annual_leave_balance}]
               v1: versioned envelope {balances: {id: days}}

  Versions are detected purely from field shape: legacy files carry no
  version tag, current files carry an envelope. Each decode function
  accepts every known shape and reports whether it saw a legacy one; Open
  rewrites legacy files in current form, so every file converges after one
  load+save cycle and a second run is a no-op.

UPGRADE RULES:
  - Bare names get defaulted role, credential (hash of "1234"), and a
    synthesized 4-character ID where none was assigned.
  - Missing roles: the configured bootstrap account - or, absent that, the
    first account in the file - becomes Admin, everyone else User.
  - Embedded annual_leave_balance moves to the ledger, but NEVER
    overwrites a ledger row that already exists (the ledger wins over a
    stale embedded value). Extraction is idempotent.
  - Name-keyed attendance rows are re-keyed by employee ID in a one-time
    batch transform; rows naming unknown employees are dropped. When the
    directory itself is unreadable the transform aborts instead of
    treating every row as unknown - the legacy files stay untouched
    until employees.json is repaired.
*/
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

const (
	directorySchemaVersion  = 3
	attendanceSchemaVersion = 2
	ledgerSchemaVersion     = 1
	registrySchemaVersion   = 1
)

// defaultCredentialHash is the legacy default password ("1234") hashed the
// way the original system stored credentials.
func defaultCredentialHash() string {
	sum := sha256.Sum256([]byte("1234"))
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// MIGRATION PASS
// =============================================================================

// migrate upgrades every store to the current schema. Runs once per Open;
// rerunning on already-upgraded data changes nothing.
func (s *Store) migrate(ctx context.Context) error {
	// Directory first: attendance re-keying needs the name -> id index and
	// ledger extraction needs the embedded balances.
	rawDir, err := s.read(employeesFile)
	if err != nil {
		return err
	}
	var employees []scheduler.Employee
	var embedded map[scheduler.EmployeeID]int
	dirLegacy := false
	dirCorrupt := false
	if rawDir == nil {
		if err := s.SaveEmployees(ctx, nil); err != nil {
			return err
		}
	} else {
		employees, embedded, dirLegacy, err = decodeDirectory(rawDir, s.bootstrapAdmin)
		if err != nil {
			// Corrupt directory: leave the file alone; reads degrade to an
			// empty directory. Remember the failure so the attendance pass
			// below never re-keys against an empty name index.
			employees, embedded, dirLegacy = nil, nil, false
			dirCorrupt = true
		}
		if dirLegacy {
			if err := s.SaveEmployees(ctx, employees); err != nil {
				return err
			}
		}
	}

	// Ledger next: merge extracted balances without clobbering existing rows.
	rawLedger, err := s.read(ledgerFile)
	if err != nil {
		return err
	}
	balances := make(map[scheduler.EmployeeID]int)
	ledgerLegacy := rawLedger == nil
	if rawLedger != nil {
		decoded, legacy, derr := decodeLedger(rawLedger)
		if derr == nil {
			balances, ledgerLegacy = decoded, legacy
		}
	}
	for id, b := range embedded {
		if _, ok := balances[id]; !ok {
			balances[id] = b
			ledgerLegacy = true
		}
	}
	if ledgerLegacy {
		if err := s.SaveBalances(ctx, balances); err != nil {
			return err
		}
	}

	// Attendance stores: one-time batch re-key from names to ids.
	nameToID := make(map[string]scheduler.EmployeeID, len(employees))
	for _, emp := range employees {
		nameToID[emp.Name] = emp.ID
	}
	for _, category := range scheduler.Categories() {
		raw, err := s.read(categoryFile(category))
		if err != nil {
			return err
		}
		if raw == nil {
			if err := s.SaveRecords(ctx, category, nil); err != nil {
				return err
			}
			continue
		}
		records, legacy, derr := decodeAttendance(raw, category, nameToID)
		if derr != nil {
			return &scheduler.PersistenceError{Store: categoryFile(category), Op: "load", Err: derr}
		}
		if legacy {
			// Re-keying without a usable directory would drop every
			// name-keyed row as an orphan. Abort and leave the legacy file
			// intact until employees.json is repaired.
			if dirCorrupt {
				return &scheduler.PersistenceError{
					Store: categoryFile(category), Op: "load",
					Err: fmt.Errorf("cannot upgrade legacy rows: %s is unreadable", employeesFile),
				}
			}
			if err := s.SaveRecords(ctx, category, records); err != nil {
				return err
			}
		}
	}

	// Registry: seed defaults only when the file is missing.
	rawReg, err := s.read(registryFile)
	if err != nil {
		return err
	}
	if rawReg == nil {
		return s.SaveRegistry(ctx, scheduler.DefaultRegistry())
	}
	return nil
}

// =============================================================================
// DIRECTORY CODEC
// =============================================================================

// legacyEmployee is the unversioned v1 object shape. The password field holds
// the SHA-256 hex digest the original stored.
type legacyEmployee struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Balance  *int   `json:"annual_leave_balance"`
}

// decodeDirectory accepts every known directory shape. It returns the
// employees, any embedded balances awaiting extraction, and whether the shape
// was a legacy one.
func decodeDirectory(raw []byte, bootstrapAdmin string) ([]scheduler.Employee, map[scheduler.EmployeeID]int, bool, error) {
	// Current envelope.
	var doc struct {
		Version   int               `json:"version"`
		Employees []json.RawMessage `json:"employees"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Version > 0 {
		employees := make([]scheduler.Employee, 0, len(doc.Employees))
		for _, rawEmp := range doc.Employees {
			var e struct {
				ID             string    `json:"id"`
				Name           string    `json:"name"`
				CredentialHash string    `json:"credential_hash"`
				Role           string    `json:"role"`
				Screens        *[]string `json:"screens"`
			}
			if err := json.Unmarshal(rawEmp, &e); err != nil {
				return nil, nil, false, err
			}
			emp := scheduler.Employee{
				ID:             scheduler.EmployeeID(e.ID),
				Name:           e.Name,
				CredentialHash: e.CredentialHash,
				Role:           scheduler.Role(e.Role),
			}
			if e.Screens != nil {
				emp.ScreenOverride = toScreens(*e.Screens)
			}
			employees = append(employees, emp)
		}
		return employees, nil, false, nil
	}

	// Legacy: a bare array, of strings (v0) or objects (v1).
	var probe []json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, nil, false, err
	}
	legacy := make([]legacyEmployee, 0, len(probe))
	for _, item := range probe {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			legacy = append(legacy, legacyEmployee{Name: name})
			continue
		}
		var obj legacyEmployee
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, nil, false, err
		}
		legacy = append(legacy, obj)
	}
	employees, embedded := upgradeLegacyDirectory(legacy, bootstrapAdmin)
	return employees, embedded, true, nil
}

// upgradeLegacyDirectory fills defaults: credential, role (bootstrap rule),
// and synthesized IDs for accounts that never got one.
func upgradeLegacyDirectory(legacy []legacyEmployee, bootstrapAdmin string) ([]scheduler.Employee, map[scheduler.EmployeeID]int) {
	used := make(map[string]bool)
	for _, e := range legacy {
		if e.ID != "" {
			used[e.ID] = true
		}
	}
	nextID := func() string {
		for n := 1; ; n++ {
			id := fmt.Sprintf("E%03d", n)
			if !used[id] {
				used[id] = true
				return id
			}
		}
	}

	adminAssigned := false
	employees := make([]scheduler.Employee, 0, len(legacy))
	embedded := make(map[scheduler.EmployeeID]int)
	for i, e := range legacy {
		emp := scheduler.Employee{
			ID:             scheduler.EmployeeID(e.ID),
			Name:           e.Name,
			CredentialHash: e.Password,
			Role:           scheduler.Role(e.Role),
		}
		if emp.ID == "" {
			emp.ID = scheduler.EmployeeID(nextID())
		}
		if emp.CredentialHash == "" {
			emp.CredentialHash = defaultCredentialHash()
		}
		if emp.Role == "" {
			switch {
			case bootstrapAdmin != "" && e.Name == bootstrapAdmin:
				emp.Role = scheduler.RoleAdmin
				adminAssigned = true
			case bootstrapAdmin == "" && i == 0:
				emp.Role = scheduler.RoleAdmin
				adminAssigned = true
			default:
				emp.Role = scheduler.RoleUser
			}
		} else if emp.Role == scheduler.RoleAdmin {
			adminAssigned = true
		}
		if e.Balance != nil {
			embedded[emp.ID] = *e.Balance
		}
		employees = append(employees, emp)
	}
	// A configured bootstrap name that matched nobody must not leave the
	// system admin-less: promote the first account.
	if !adminAssigned && len(employees) > 0 {
		employees[0].Role = scheduler.RoleAdmin
	}
	return employees, embedded
}

func encodeDirectory(employees []scheduler.Employee) any {
	type emp struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		CredentialHash string    `json:"credential_hash"`
		Role           string    `json:"role"`
		Screens        *[]string `json:"screens,omitempty"`
	}
	out := struct {
		Version   int   `json:"version"`
		Employees []emp `json:"employees"`
	}{Version: directorySchemaVersion, Employees: make([]emp, 0, len(employees))}
	for _, e := range employees {
		entry := emp{
			ID:             string(e.ID),
			Name:           e.Name,
			CredentialHash: e.CredentialHash,
			Role:           string(e.Role),
		}
		if e.ScreenOverride != nil {
			screens := fromScreens(e.ScreenOverride)
			entry.Screens = &screens
		}
		out.Employees = append(out.Employees, entry)
	}
	return out
}

// =============================================================================
// ATTENDANCE CODEC
// =============================================================================

type attendanceRow struct {
	EmployeeID   string         `json:"employee_id,omitempty"`
	EmployeeName string         `json:"employee_name,omitempty"`
	Date         scheduler.Date `json:"date"`
	Status       string         `json:"status"`
	SeminarName  string         `json:"seminar_name,omitempty"`
}

// decodeAttendance accepts the versioned envelope and the legacy bare row
// list. Legacy rows keyed by employee_name are re-keyed through nameToID;
// rows naming unknown employees are dropped.
func decodeAttendance(raw []byte, category scheduler.Category, nameToID map[string]scheduler.EmployeeID) ([]scheduler.Record, bool, error) {
	var doc struct {
		Version int             `json:"version"`
		Records []attendanceRow `json:"records"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Version > 0 {
		records := make([]scheduler.Record, 0, len(doc.Records))
		for _, row := range doc.Records {
			records = append(records, rowToRecord(row, category, scheduler.EmployeeID(row.EmployeeID)))
		}
		return records, false, nil
	}

	var rows []attendanceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, err
	}
	records := make([]scheduler.Record, 0, len(rows))
	for _, row := range rows {
		id := scheduler.EmployeeID(row.EmployeeID)
		if id == "" {
			mapped, ok := nameToID[row.EmployeeName]
			if !ok {
				continue // orphaned legacy row
			}
			id = mapped
		}
		records = append(records, rowToRecord(row, category, id))
	}
	return records, true, nil
}

func rowToRecord(row attendanceRow, category scheduler.Category, id scheduler.EmployeeID) scheduler.Record {
	status := row.Status
	if status == "" {
		status = category.StatusLabel()
	}
	return scheduler.Record{
		EmployeeID:  id,
		Date:        row.Date,
		Category:    category,
		Status:      status,
		SeminarName: row.SeminarName,
	}
}

func encodeAttendance(records []scheduler.Record) any {
	out := struct {
		Version int             `json:"version"`
		Records []attendanceRow `json:"records"`
	}{Version: attendanceSchemaVersion, Records: make([]attendanceRow, 0, len(records))}
	for _, rec := range records {
		out.Records = append(out.Records, attendanceRow{
			EmployeeID:  string(rec.EmployeeID),
			Date:        rec.Date,
			Status:      rec.Status,
			SeminarName: rec.SeminarName,
		})
	}
	return out
}

// =============================================================================
// LEDGER CODEC
// =============================================================================

func decodeLedger(raw []byte) (map[scheduler.EmployeeID]int, bool, error) {
	var doc struct {
		Version  int            `json:"version"`
		Balances map[string]int `json:"balances"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Version > 0 {
		balances := make(map[scheduler.EmployeeID]int, len(doc.Balances))
		for id, b := range doc.Balances {
			balances[scheduler.EmployeeID(id)] = b
		}
		return balances, false, nil
	}

	// Legacy row list.
	var rows []struct {
		EmployeeID string `json:"employee_id"`
		Balance    int    `json:"annual_leave_balance"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, err
	}
	balances := make(map[scheduler.EmployeeID]int, len(rows))
	for _, row := range rows {
		balances[scheduler.EmployeeID(row.EmployeeID)] = row.Balance
	}
	return balances, true, nil
}

func encodeLedger(balances map[scheduler.EmployeeID]int) any {
	out := struct {
		Version  int            `json:"version"`
		Balances map[string]int `json:"balances"`
	}{Version: ledgerSchemaVersion, Balances: make(map[string]int, len(balances))}
	for id, b := range balances {
		out.Balances[string(id)] = b
	}
	return out
}

// =============================================================================
// REGISTRY CODEC
// =============================================================================

func decodeRegistry(raw []byte) (scheduler.RoleRegistry, error) {
	var doc struct {
		Version int                 `json:"version"`
		Roles   map[string][]string `json:"roles"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Version == 0 {
		// Tolerate a bare role map written by hand.
		if err := json.Unmarshal(raw, &doc.Roles); err != nil {
			return nil, err
		}
	}
	registry := make(scheduler.RoleRegistry, len(doc.Roles))
	for role, screens := range doc.Roles {
		registry[scheduler.Role(role)] = toScreens(screens)
	}
	return registry, nil
}

func encodeRegistry(registry scheduler.RoleRegistry) any {
	out := struct {
		Version int                 `json:"version"`
		Roles   map[string][]string `json:"roles"`
	}{Version: registrySchemaVersion, Roles: make(map[string][]string, len(registry))}
	for role, screens := range registry {
		out.Roles[string(role)] = fromScreens(screens)
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func toScreens(names []string) []scheduler.Screen {
	out := make([]scheduler.Screen, len(names))
	for i, n := range names {
		out[i] = scheduler.Screen(n)
	}
	return out
}

func fromScreens(screens []scheduler.Screen) []string {
	out := make([]string, len(screens))
	for i, s := range screens {
		out[i] = string(s)
	}
	return out
}
