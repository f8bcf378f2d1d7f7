// Package auth implements account registration and login: password hashing,
// session token issuance and the orchestration between them and the account store.
package auth
