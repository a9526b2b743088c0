package auth

import (
	"testing"
	"time"

	"eduscan/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	user := model.User{ID: "teacher1", Role: model.RoleTeacher}
	token, exp, err := Issue(user, "eduscan", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry %v not in the future", exp)
	}

	claims, err := Parse(token, "secret", "eduscan")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "teacher1" || claims.Role != model.RoleTeacher {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	user := model.User{ID: "admin1", Role: model.RoleAdmin}
	token, _, err := Issue(user, "eduscan", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	expired, _, err := Issue(user, "eduscan", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("Issue(expired) error = %v", err)
	}

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{name: "wrong key", token: token, key: "other", issuer: "eduscan"},
		{name: "wrong issuer", token: token, key: "secret", issuer: "someone-else"},
		{name: "garbage", token: "not.a.token", key: "secret", issuer: "eduscan"},
		{name: "expired", token: expired, key: "secret", issuer: "eduscan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.token, tt.key, tt.issuer); err == nil {
				t.Error("Parse() error = nil, want rejection")
			}
		})
	}
}
