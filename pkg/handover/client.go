package handover

// DecryptEnvelope performs the client-side decryption symmetric to
// HandoverStart step 6. It is not part of HandoverEngine because the core
// only guarantees the envelope carries enough to decrypt (spec.md §4.5.3);
// the new node's bootstrapper calls this once it has received the
// HandoverResult and still holds clientSK, the ephemeral secret key it
// generated in AcceptChallenge.
func DecryptEnvelope(clientSK []byte, envelope EncryptedSecretEnvelope) ([]byte, error) {
	crypto := NewCryptoPrimitives()
	defer zeroize(clientSK)

	serverPK := envelope.EcdhPubkey[:]
	clientPK, err := curve25519Public(clientSK)
	if err != nil {
		return nil, err
	}

	shared, err := crypto.DeriveSharedKey(clientSK, serverPK, clientPK, serverPK)
	if err != nil {
		return nil, err
	}
	defer zeroize(shared)

	return crypto.Open(shared, envelope.IV[:], envelope.Ciphertext, nil)
}
