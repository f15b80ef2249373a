package mask

import "github.com/MrEthical07/goAccess/permission"

// Field names a maskable attribute of a record.
type Field string

const (
	FieldPhone    Field = "phone"
	FieldIDCard   Field = "idCard"
	FieldEmail    Field = "email"
	FieldName     Field = "name"
	FieldBankCard Field = "bankCard"
	FieldAddress  Field = "address"
)

var sensitive = map[Field]bool{
	FieldPhone:    true,
	FieldIDCard:   true,
	FieldEmail:    true,
	FieldBankCard: true,
	FieldAddress:  true,
}

// Apply masks value with the rule for field. Unknown fields pass through.
func Apply(value string, field Field) string {
	switch field {
	case FieldPhone:
		return Phone(value)
	case FieldIDCard:
		return IDCard(value)
	case FieldEmail:
		return Email(value)
	case FieldName:
		return Name(value)
	case FieldBankCard:
		return BankCard(value)
	case FieldAddress:
		return Address(value)
	default:
		return value
	}
}

// ShouldMask reports whether a viewer with role sees field redacted.
// System and audit administrators see raw values.
func ShouldMask(role permission.Role, field Field) bool {
	if role == permission.RoleSystemAdmin || role == permission.RoleAuditAdmin {
		return false
	}
	return sensitive[field]
}

// Display returns value as the viewer with role should see it.
func Display(value string, field Field, role permission.Role) string {
	if ShouldMask(role, field) {
		return Apply(value, field)
	}
	return value
}

// Record returns a copy of rec with every known field rendered for role.
func Record(rec map[string]string, role permission.Role) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		out[k] = Display(v, Field(k), role)
	}
	return out
}
