package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/contract"
)

func TestTerminal_AppendLineWithoutColors(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	term.AppendLine("(10:00:00) alice: hi", contract.StylePlain)
	term.AppendLine("[Server]: Disconnection finished.", contract.StyleServer)

	req.Equal("(10:00:00) alice: hi\n[Server]: Disconnection finished.\n", buf.String())
}

func TestTerminal_UserList(t *testing.T) {
	req := require.New(t)
	term := NewTerminal(&bytes.Buffer{}, false)

	term.AddUser("alice")
	term.AddUser("bob")
	term.AddUser("alice")
	req.Equal([]string{"alice", "bob"}, term.Users())

	term.RemoveUser("alice")
	req.Equal([]string{"bob"}, term.Users())

	term.RemoveUser("nobody")
	req.Equal([]string{"bob"}, term.Users())

	term.ClearUsers()
	req.Empty(term.Users())
}

func TestTerminal_RenderUsersTable(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)
	term.AddUser("alice")

	term.RenderUsers()

	req.Contains(buf.String(), "alice")
}
