package deployer

import "strings"

// sanitizePath scopes a subscription path to the space: a blank path becomes
// /{space}/, and a leading / and /{space} are added when missing.
func sanitizePath(path, space string) string {
	if path == "" {
		path = "/" + space + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/"+space) {
		path = "/" + space + path
	}
	return path
}
