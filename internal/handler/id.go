package handler

import (
	secure "github.com/soulteary/secure-kit"
)

const idPrefixAccount = "a_"
const idPrefixFolder = "f_"
const randomIDLen = 16

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewAccountID returns a new account ID (a_xxxx).
func NewAccountID() (string, error) {
	s, err := secure.RandomString(randomIDLen, idAlphabet)
	if err != nil {
		return "", err
	}
	return idPrefixAccount + s, nil
}

// NewFolderID returns a new folder ID (f_xxxx).
func NewFolderID() (string, error) {
	s, err := secure.RandomString(randomIDLen, idAlphabet)
	if err != nil {
		return "", err
	}
	return idPrefixFolder + s, nil
}
