package middleware

import "github.com/gin-gonic/gin"

// memberIDKey is the key used to store the authenticated member's ID in the
// request context. Using a custom type prevents collisions.
const memberIDKey = contextKey("memberID")

// GetMemberIDFromContext retrieves the authenticated member ID from the Gin
// context. It returns the member ID and a boolean indicating if it was found.
func GetMemberIDFromContext(c *gin.Context) (string, bool) {
	memberIDVal, exists := c.Get(string(memberIDKey))
	if !exists {
		// check in the request context as well
		if val := c.Request.Context().Value(memberIDKey); val != nil {
			if memberID, ok := val.(string); ok {
				return memberID, true
			}
		}
		return "", false
	}

	memberID, ok := memberIDVal.(string)
	if !ok {
		return "", false
	}
	return memberID, true
}
