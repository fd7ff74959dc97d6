package domain

type ReflectionID string
type FlowID string
type AccountID string
type DeviceID string

// Owner identifies whose reflections a flow reads and writes.
// Exactly one of Account or Device is set.
type Owner struct {
	Account AccountID
	Device  DeviceID
}

// Authenticated reports whether the owner is a signed-in account.
func (o Owner) Authenticated() bool {
	return o.Account != ""
}

func (o Owner) String() string {
	if o.Authenticated() {
		return "account:" + string(o.Account)
	}
	return "device:" + string(o.Device)
}
