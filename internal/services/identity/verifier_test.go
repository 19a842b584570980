package identity

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/domain"
)

const testBotToken = "123456:TEST-token"

func encodeFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = url.QueryEscape(f.Key) + "=" + url.QueryEscape(f.Value)
	}
	return strings.Join(parts, "&")
}

func signedPayload(t *testing.T, v *Verifier, fields []Field) string {
	t.Helper()
	signature := v.Sign(fields)
	return encodeFields(append(append([]Field{}, fields...), Field{Key: SignatureField, Value: signature}))
}

func defaultFields() []Field {
	return []Field{
		{Key: "query_id", Value: "AAHdF6IQAAAAAN0XohDhrOrc"},
		{Key: IdentityField, Value: `{"id":279058397,"first_name":"Vladislav","last_name":"Kibenko","username":"vdkfrost","language_code":"ru","photo_url":"https://t.me/i/userpic/320/x.jpg"}`},
		{Key: IssuedAtField, Value: "1662771648"},
	}
}

func TestVerifier_ValidPayload(t *testing.T) {
	v := NewVerifier(testBotToken)

	identity, err := v.Verify(signedPayload(t, v, defaultFields()))
	require.NoError(t, err)
	require.Equal(t, "279058397", identity.ExternalID)
	require.Equal(t, "Vladislav Kibenko", identity.DisplayName)
	require.Equal(t, int64(1662771648), identity.IssuedAt)

	username, ok := identity.Username.Get()
	require.True(t, ok)
	require.Equal(t, "vdkfrost", username)

	photo, ok := identity.PhotoURL.Get()
	require.True(t, ok)
	require.Equal(t, "https://t.me/i/userpic/320/x.jpg", photo)
}

func TestVerify_PackageLevel(t *testing.T) {
	v := NewVerifier(testBotToken)
	raw := signedPayload(t, v, defaultFields())

	identity, err := Verify(raw, testBotToken)
	require.NoError(t, err)
	require.Equal(t, "279058397", identity.ExternalID)

	_, err = Verify(raw, "another:token")
	require.ErrorIs(t, err, domain.ErrSignatureMismatch)
}

func TestVerifier_FlippedSignatureByte(t *testing.T) {
	v := NewVerifier(testBotToken)
	fields := defaultFields()
	signature := v.Sign(fields)

	verifyWith := func(t *testing.T, sig []byte, pos int) {
		t.Helper()
		raw := encodeFields(append(append([]Field{}, fields...), Field{Key: SignatureField, Value: string(sig)}))
		_, err := v.Verify(raw)
		require.ErrorIs(t, err, domain.ErrSignatureMismatch, "position %d signature %s", pos, sig)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}

	t.Run("other hex digit", func(t *testing.T) {
		for i := range signature {
			flipped := []byte(signature)
			if flipped[i] == 'a' {
				flipped[i] = 'b'
			} else {
				flipped[i] = 'a'
			}
			verifyWith(t, flipped, i)
		}
	})

	t.Run("low bit", func(t *testing.T) {
		for i := range signature {
			flipped := []byte(signature)
			flipped[i] ^= 0x01
			verifyWith(t, flipped, i)
		}
	})

	t.Run("upper case letter", func(t *testing.T) {
		letters := 0
		for i := range signature {
			if signature[i] < 'a' || signature[i] > 'f' {
				continue
			}
			letters++
			flipped := []byte(signature)
			flipped[i] = flipped[i] - 'a' + 'A'
			verifyWith(t, flipped, i)
		}
		require.Positive(t, letters)

		verifyWith(t, []byte(strings.ToUpper(signature)), -1)
	})

	t.Run("non hex byte", func(t *testing.T) {
		for i := range signature {
			flipped := []byte(signature)
			flipped[i] = 'z'
			verifyWith(t, flipped, i)
		}
	})
}

func TestVerifier_FlippedFieldValue(t *testing.T) {
	v := NewVerifier(testBotToken)
	fields := defaultFields()
	signature := v.Sign(fields)

	for fi := range fields {
		for bi := range fields[fi].Value {
			tampered := append([]Field{}, fields...)
			value := []byte(tampered[fi].Value)
			value[bi] ^= 0x01
			tampered[fi] = Field{Key: tampered[fi].Key, Value: string(value)}

			raw := encodeFields(append(tampered, Field{Key: SignatureField, Value: signature}))
			_, err := v.Verify(raw)
			require.Error(t, err, "field %s byte %d", fields[fi].Key, bi)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
		}
	}
}

func TestVerifier_FieldOrderDoesNotMatter(t *testing.T) {
	v := NewVerifier(testBotToken)
	fields := defaultFields()
	signature := v.Sign(fields)

	reordered := []Field{
		{Key: SignatureField, Value: signature},
		fields[2],
		fields[0],
		fields[1],
	}

	identity, err := v.Verify(encodeFields(reordered))
	require.NoError(t, err)
	require.Equal(t, "279058397", identity.ExternalID)
}

func TestVerifier_Rejections(t *testing.T) {
	v := NewVerifier(testBotToken)

	tests := []struct {
		name   string
		raw    func() string
		kind   error
		reason domain.RejectionReason
	}{
		{
			name:   "empty string",
			raw:    func() string { return "" },
			kind:   domain.ErrMalformedPayload,
			reason: domain.RejectionMalformedPayload,
		},
		{
			name:   "no hash",
			raw:    func() string { return encodeFields(defaultFields()) },
			kind:   domain.ErrMalformedPayload,
			reason: domain.RejectionMalformedPayload,
		},
		{
			name:   "empty hash",
			raw:    func() string { return encodeFields(defaultFields()) + "&hash=" },
			kind:   domain.ErrMalformedPayload,
			reason: domain.RejectionMalformedPayload,
		},
		{
			name:   "bad escape",
			raw:    func() string { return "user=%zz&hash=abcd" },
			kind:   domain.ErrMalformedPayload,
			reason: domain.RejectionMalformedPayload,
		},
		{
			name:   "hash is not hex",
			raw:    func() string { return encodeFields(defaultFields()) + "&hash=not-hex" },
			kind:   domain.ErrSignatureMismatch,
			reason: domain.RejectionSignatureMismatch,
		},
		{
			name: "missing user",
			raw: func() string {
				return signedPayload(t, v, []Field{{Key: IssuedAtField, Value: "1662771648"}})
			},
			kind:   domain.ErrMissingIdentity,
			reason: domain.RejectionMissingIdentity,
		},
		{
			name: "user without id",
			raw: func() string {
				return signedPayload(t, v, []Field{{Key: IdentityField, Value: `{"first_name":"A"}`}})
			},
			kind:   domain.ErrMissingSubjectID,
			reason: domain.RejectionMissingSubjectID,
		},
		{
			name: "user is not json",
			raw: func() string {
				return signedPayload(t, v, []Field{{Key: IdentityField, Value: `{"id":1`}})
			},
			kind:   domain.ErrMalformedIdentity,
			reason: domain.RejectionMalformedIdentity,
		},
		{
			name: "user is null",
			raw: func() string {
				return signedPayload(t, v, []Field{{Key: IdentityField, Value: `null`}})
			},
			kind:   domain.ErrMalformedIdentity,
			reason: domain.RejectionMalformedIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(tt.raw())
			require.Nil(t, identity)
			require.ErrorIs(t, err, tt.kind)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
			require.Equal(t, tt.reason, domain.RejectionReasonOf(err))
		})
	}
}

func TestVerifier_IssuedAtPrecedence(t *testing.T) {
	v := NewVerifier(testBotToken)

	t.Run("top level wins", func(t *testing.T) {
		identity, err := v.Verify(signedPayload(t, v, []Field{
			{Key: IdentityField, Value: `{"id":7,"first_name":"A","auth_date":100}`},
			{Key: IssuedAtField, Value: "200"},
		}))
		require.NoError(t, err)
		require.Equal(t, int64(200), identity.IssuedAt)
	})

	t.Run("identity value used when top level absent", func(t *testing.T) {
		identity, err := v.Verify(signedPayload(t, v, []Field{
			{Key: IdentityField, Value: `{"id":7,"first_name":"A","auth_date":"100"}`},
		}))
		require.NoError(t, err)
		require.Equal(t, int64(100), identity.IssuedAt)
	})

	t.Run("neither present", func(t *testing.T) {
		identity, err := v.Verify(signedPayload(t, v, []Field{
			{Key: IdentityField, Value: `{"id":"7","first_name":"A"}`},
		}))
		require.NoError(t, err)
		require.Equal(t, int64(0), identity.IssuedAt)
		require.Equal(t, "7", identity.ExternalID)
	})
}

func TestVerifier_MaxAge(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier(testBotToken, WithMaxAge(time.Hour), WithClock(func() time.Time { return now }))

	fresh := signedPayload(t, v, []Field{
		{Key: IdentityField, Value: `{"id":1,"first_name":"A"}`},
		{Key: IssuedAtField, Value: "1699999000"},
	})
	_, err := v.Verify(fresh)
	require.NoError(t, err)

	stale := signedPayload(t, v, []Field{
		{Key: IdentityField, Value: `{"id":1,"first_name":"A"}`},
		{Key: IssuedAtField, Value: "1699990000"},
	})
	_, err = v.Verify(stale)
	require.ErrorIs(t, err, domain.ErrExpiredPayload)
	require.Equal(t, domain.RejectionExpiredPayload, domain.RejectionReasonOf(err))
}

func TestVerifier_OptionalIdentityFields(t *testing.T) {
	v := NewVerifier(testBotToken)

	identity, err := v.Verify(signedPayload(t, v, []Field{
		{Key: IdentityField, Value: `{"id":1,"first_name":"","username":"nick","photo_url":null}`},
	}))
	require.NoError(t, err)
	require.Equal(t, "nick", identity.DisplayName)
	require.True(t, identity.PhotoURL.IsNull())
	require.True(t, identity.Username.IsSet())

	identity, err = v.Verify(signedPayload(t, v, []Field{
		{Key: IdentityField, Value: `{"id":1,"first_name":"A"}`},
	}))
	require.NoError(t, err)
	require.False(t, identity.PhotoURL.IsSet())
	require.False(t, identity.Username.IsSet())
}

func TestVerifier_RejectionDetailsStayInternal(t *testing.T) {
	v := NewVerifier(testBotToken)

	_, err := v.Verify("user=%7B&hash=00")
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrUnauthorized))

	var authErr *domain.AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, domain.ErrSignatureMismatch, authErr.Kind)
}
