package permissions

import "github.com/bwmarrin/discordgo"

func IsAdministrator(granted int64) bool {
	return granted&discordgo.PermissionAdministrator != 0
}

func Has(granted, required int64) bool {
	if IsAdministrator(granted) {
		return true
	}
	return granted&required == required
}

func CanKick(granted int64) bool {
	return Has(granted, discordgo.PermissionKickMembers)
}

func CanBan(granted int64) bool {
	return Has(granted, discordgo.PermissionBanMembers)
}

func CanManageMessages(granted int64) bool {
	return Has(granted, discordgo.PermissionManageMessages)
}

func CanManageRoles(granted int64) bool {
	return Has(granted, discordgo.PermissionManageRoles)
}
