package models

// MaxCredentialLen is the fixed width of the ssid and password slots.
const MaxCredentialLen = 64

// Credentials of the infrastructure network the device joins.
type Credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"-"`
}

// Empty reports whether no network has been provisioned.
func (c Credentials) Empty() bool {
	return c.SSID == ""
}

// Record is everything the device keeps across power loss.
type Record struct {
	Credentials Credentials
	Running     bool
	Schedule    Week
}

// DefaultRecord is the compiled-in state of a never provisioned device.
func DefaultRecord() Record {
	return Record{Schedule: DefaultWeek()}
}
