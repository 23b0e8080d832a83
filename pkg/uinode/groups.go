package uinode

// Group tags which authentication or profile method a node belongs to.
// Unknown groups are kept verbatim.
type Group string

const (
	GroupDefault         Group = "default"
	GroupPassword        Group = "password"
	GroupOIDC            Group = "oidc"
	GroupProfile         Group = "profile"
	GroupCode            Group = "code"
	GroupTOTP            Group = "totp"
	GroupLookupSecret    Group = "lookup_secret"
	GroupWebAuthn        Group = "webauthn"
	GroupPasskey         Group = "passkey"
	GroupCaptcha         Group = "captcha"
	GroupSAML            Group = "saml"
	GroupIdentifierFirst Group = "identifier_first"
)

var groupLegends = map[Group]string{
	GroupPassword:     "Password",
	GroupOIDC:         "OIDC",
	GroupProfile:      "Profile",
	GroupCode:         "Code",
	GroupTOTP:         "TOTP",
	GroupLookupSecret: "Recovery",
	GroupWebAuthn:     "Web Authentication",
	GroupPasskey:      "Passkey",
	GroupCaptcha:      "Captcha",
	GroupSAML:         "SAML",
}

// Legend is the fieldset legend shown above a group's form. Groups without an
// entry (default, identifier_first, unknown) have an empty legend.
func (g Group) Legend() string {
	return groupLegends[g]
}

// Partition splits nodes into the default-group nodes (input order kept) and
// maximal runs of adjacent nodes sharing a non-default group. Two nodes of the
// same group separated by another group end up in different runs.
func Partition(nodes []Node) (common []Node, runs [][]Node) {
	var rest []Node
	for _, node := range nodes {
		if node.Group == GroupDefault {
			common = append(common, node)
			continue
		}
		rest = append(rest, node)
	}

	for idx := 0; idx < len(rest); {
		end := idx + 1
		for end < len(rest) && rest[end].Group == rest[idx].Group {
			end++
		}
		runs = append(runs, rest[idx:end:end])
		idx = end
	}
	return common, runs
}
