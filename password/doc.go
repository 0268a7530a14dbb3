// Package password hashes portal credentials with argon2id and encodes
// them as PHC strings, so parameters travel with the hash and cost can
// be raised without rehashing the whole directory at once.
package password
