package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

func TestUser_SetCheckPassword(t *testing.T) {
	var usr User
	if err := usr.CheckPassword("lol"); err == nil {
		t.Error("CheckPassword() passed with no hash set")
	}

	if err := usr.SetPassword("PassW0rd!"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if err := usr.CheckPassword("PassW0rd!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := usr.CheckPassword("passw0rd!"); err == nil {
		t.Error("CheckPassword() passed with the wrong password")
	}
}

func newTestValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	validate := newTestValidator()

	nu := func(pwd string) NewUser {
		return NewUser{
			Name:            "Alice M",
			Username:        "alice",
			Email:           "alice@test.cd",
			Role:            RoleStudent,
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}

	tests := []struct {
		name    string
		data    NewUser
		wantTag string
	}{
		{name: "too short", data: nu("lol"), wantTag: "pwdminlen"},
		{name: "whitespace", data: nu("lol mdr kie"), wantTag: "pwdnospace"},
		{name: "all numeric", data: nu("16497294"), wantTag: "pwdnotallnum"},
		{name: "similar to username", data: nu("alice2024"), wantTag: "pwdtoosim"},
		{name: "similar to email", data: nu("alice@test.cd1"), wantTag: "pwdtoosim"},
		{name: "good password", data: nu("PassW0rd!")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() error = %v, want nil", err)
				}
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			for _, vErr := range vErrs {
				if vErr.Tag() == tt.wantTag {
					return
				}
			}
			t.Errorf("Struct() errors = %v, want tag %q", vErrs, tt.wantTag)
		})
	}
}

func TestQueryFilter_Clean(t *testing.T) {
	qf := QueryFilter{Search: "  Alice "}
	qf.Clean()
	if qf.Search != "Alice" {
		t.Errorf("Search = %q, want %q", qf.Search, "Alice")
	}
}
