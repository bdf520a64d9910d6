// Package github is a small client for the parts of the GitHub REST API
// this service uses: the authenticated user, App installations and their
// access tokens, installation repositories, and issue creation.
//
// Three credential types exist and are not interchangeable:
//
//   - UserToken: an OAuth access token acting for a user
//   - AppAssertion: a short-lived JWT signed with the App's private key,
//     accepted only by the installation-token endpoint
//   - InstallationToken: a token scoped to one installation
//
// Every non-2xx response is returned as an *APIError. An exhausted quota
// is returned as a *RateLimitError so callers can back off instead of
// treating it as an authentication failure.
package github
