package permissions

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestHas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		granted  int64
		required int64
		want     bool
	}{
		{
			name:     "exact bit present",
			granted:  discordgo.PermissionKickMembers,
			required: discordgo.PermissionKickMembers,
			want:     true,
		},
		{
			name:     "bit absent",
			granted:  discordgo.PermissionSendMessages,
			required: discordgo.PermissionBanMembers,
			want:     false,
		},
		{
			name:     "administrator implies everything",
			granted:  discordgo.PermissionAdministrator,
			required: discordgo.PermissionBanMembers | discordgo.PermissionManageRoles,
			want:     true,
		},
		{
			name:     "partial match is not enough",
			granted:  discordgo.PermissionKickMembers,
			required: discordgo.PermissionKickMembers | discordgo.PermissionBanMembers,
			want:     false,
		},
		{
			name:     "no permissions at all",
			granted:  0,
			required: discordgo.PermissionManageMessages,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Has(tt.granted, tt.required); got != tt.want {
				t.Fatalf("Has(%d, %d) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}

func TestCommandPredicates(t *testing.T) {
	t.Parallel()

	if !CanKick(discordgo.PermissionKickMembers) {
		t.Fatal("kick members bit should allow kicking")
	}
	if CanKick(discordgo.PermissionBanMembers) {
		t.Fatal("ban members bit alone should not allow kicking")
	}
	if !CanBan(discordgo.PermissionBanMembers) {
		t.Fatal("ban members bit should allow banning")
	}
	if !CanManageMessages(discordgo.PermissionManageMessages) {
		t.Fatal("manage messages bit should allow purging")
	}
	if !CanManageRoles(discordgo.PermissionManageRoles) {
		t.Fatal("manage roles bit should allow rule edits")
	}
	if !IsAdministrator(discordgo.PermissionAdministrator) {
		t.Fatal("administrator bit should be recognized")
	}
	if IsAdministrator(discordgo.PermissionManageRoles) {
		t.Fatal("manage roles alone is not administrator")
	}
}
