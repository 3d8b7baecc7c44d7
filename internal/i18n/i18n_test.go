package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("tr"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateTurkish(t *testing.T) {
	ctx := initLang(t, "tr")

	got := T(ctx, "AppTitle")
	if got != "Hazırlık" {
		t.Errorf("T(AppTitle) = %q, want 'Hazırlık'", got)
	}

	got = T(ctx, "ErrUnauthorized")
	if got != "Bu işlem için giriş yapmalısınız." {
		t.Errorf("T(ErrUnauthorized) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "ErrInvalidCredentials")
	if got != "Wrong email or password." {
		t.Errorf("T(ErrInvalidCredentials) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ErrPasswordTooShort", map[string]any{"Min": 6})
	if got != "Password must be at least 6 characters." {
		t.Errorf("Td(ErrPasswordTooShort, Min=6) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "tr")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}
