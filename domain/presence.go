package domain

// Presence is both the connect/disconnect control payload sent to the
// server and the event it broadcasts back to every client.
type Presence struct {
	Connecting bool
	Name       string
}

// ConnectRequest builds the control payload asking the server to reserve name.
func ConnectRequest(name string) Presence {
	return Presence{Connecting: true, Name: name}
}

// DisconnectRequest builds the control payload releasing name.
func DisconnectRequest(name string) Presence {
	return Presence{Connecting: false, Name: name}
}
