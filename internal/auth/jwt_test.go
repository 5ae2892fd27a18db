package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	pair, err := Issue("u1", RoleStudent, "classlogger", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Parse(pair.AccessToken, "secret", "classlogger")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != RoleStudent {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	pair, _ := Issue("u1", RoleTeacher, "classlogger", "secret", time.Minute, time.Hour)

	if _, err := Parse(pair.AccessToken, "other-key", "classlogger"); err == nil {
		t.Error("Parse accepted a token signed with another key")
	}
	if _, err := Parse(pair.AccessToken, "secret", "someone-else"); err == nil {
		t.Error("Parse accepted a token from another issuer")
	}
	if _, err := Parse("garbage", "secret", "classlogger"); err == nil {
		t.Error("Parse accepted garbage")
	}

	expired, _ := Issue("u1", RoleTeacher, "classlogger", "secret", -time.Minute, time.Hour)
	if _, err := Parse(expired.AccessToken, "secret", "classlogger"); err == nil {
		t.Error("Parse accepted an expired token")
	}
}
