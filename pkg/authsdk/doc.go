/*
Package authsdk is a Go client for the blog's Slack login service, and the
home of the JSON shapes the service speaks.

# Overview

Logins are browser driven: the frontend sends the user to /auth/login, Slack
sends them back to /auth/callback, and the service redirects to the frontend
with a bearer credential in the query string. Everything after that is plain
JSON over HTTP and is what this package wraps:

	client := authsdk.NewSDKClient("https://api.example.org")

	// Pull the credential out of the frontend redirect
	token, err := authsdk.CredentialFromRedirect(location)

	// Check it and read back the user
	res, err := client.Verify(ctx, token)
	fmt.Println(res.User.Name, res.User.Team)

	// Protected routes
	me, err := client.Me(ctx, token)

# Errors

Non-2xx replies come back as *APIError carrying the status code and the
short reason the server sent, for example "credential expired":

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
		// send the user back to the login page
	}

Credentials are stateless. Logout tells the server, but a copied token stays
valid until it expires.
*/
package authsdk
