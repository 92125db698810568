package domain

import "fmt"

// SteamIDBase is the offset between a 64-bit SteamID and the account number
// encoded in the legacy STEAM_1 form.
const SteamIDBase uint64 = 76561197960265728

// LegacySteamID converts a 64-bit SteamID into the legacy two-part
// STEAM_1:Y:Z form used as the lookup key by the external rank stores.
// Values below the individual-account base have no legacy form and yield "".
func LegacySteamID(id64 uint64) string {
	if id64 < SteamIDBase {
		return ""
	}
	acct := id64 - SteamIDBase
	return fmt.Sprintf("STEAM_1:%d:%d", acct%2, acct/2)
}
