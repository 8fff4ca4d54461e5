package mailer

import "fmt"

// Templates below keep markup minimal on purpose. Links point back at the
// deployment base URL configured for the server.

// VerificationEmail is sent after registration with the verify link.
func VerificationEmail(to, username, baseURL, token string) Email {
	link := fmt.Sprintf("%s/verify-email?token=%s", baseURL, token)
	return Email{
		To:      to,
		Subject: "Verify your MarvelCDC email address",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Welcome to MarvelCDC. Confirm your email address to activate your account:</p>"+
				"<p><a href=%q>Verify email</a></p><p>The link expires in 24 hours.</p>",
			username, link),
		Text: fmt.Sprintf(
			"Hi %s,\n\nWelcome to MarvelCDC. Confirm your email address to activate your account:\n\n%s\n\nThe link expires in 24 hours.\n",
			username, link),
	}
}

// WelcomeEmail is sent once the account is verified.
func WelcomeEmail(to, username, baseURL string) Email {
	return Email{
		To:      to,
		Subject: "Welcome to MarvelCDC",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your account is verified. Add your packs and import decks to see what you can build:</p>"+
				"<p><a href=%q>%s</a></p>",
			username, baseURL, baseURL),
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour account is verified. Add your packs and import decks to see what you can build:\n\n%s\n",
			username, baseURL),
	}
}

// PasswordResetEmail carries the reset link.
func PasswordResetEmail(to, username, baseURL, token string) Email {
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)
	return Email{
		To:      to,
		Subject: "Reset your MarvelCDC password",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Someone requested a password reset for your account. If it was you, choose a new password here:</p>"+
				"<p><a href=%q>Reset password</a></p><p>The link expires in 1 hour. Otherwise you can ignore this email.</p>",
			username, link),
		Text: fmt.Sprintf(
			"Hi %s,\n\nSomeone requested a password reset for your account. If it was you, choose a new password here:\n\n%s\n\nThe link expires in 1 hour. Otherwise you can ignore this email.\n",
			username, link),
	}
}

// PasswordChangedEmail confirms a completed reset.
func PasswordChangedEmail(to, username string) Email {
	return Email{
		To:      to,
		Subject: "Your MarvelCDC password was changed",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your password was just changed and all other sessions were signed out. "+
				"If this wasn't you, reset your password immediately.</p>",
			username),
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour password was just changed and all other sessions were signed out. If this wasn't you, reset your password immediately.\n",
			username),
	}
}

// EmailChangeEmail is sent to the NEW address to confirm an email change.
func EmailChangeEmail(to, username, baseURL, token string) Email {
	link := fmt.Sprintf("%s/verify-email-change?token=%s", baseURL, token)
	return Email{
		To:      to,
		Subject: "Confirm your new MarvelCDC email address",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Confirm this address to make it the primary email on your account:</p>"+
				"<p><a href=%q>Confirm email change</a></p><p>The link expires in 24 hours. Until then your old address stays active.</p>",
			username, link),
		Text: fmt.Sprintf(
			"Hi %s,\n\nConfirm this address to make it the primary email on your account:\n\n%s\n\nThe link expires in 24 hours. Until then your old address stays active.\n",
			username, link),
	}
}
