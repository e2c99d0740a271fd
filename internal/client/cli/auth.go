package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for operator credentials and exchanges them for an access
// token. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.in, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.in, a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	if err := a.authService.Login(ctx, userName, password); err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthorized):
			fmt.Fprintln(a.out, "Login unsuccessful: invalid credentials")
		case errors.Is(err, common.ErrNetwork):
			fmt.Fprintln(a.out, "Server unavailable, uploads can still be queued")
		default:
			fmt.Fprintf(a.out, "Login unsuccessful: %s\n", err)
		}
		return err
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout forgets the access token. Queued uploads stay queued.
func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
