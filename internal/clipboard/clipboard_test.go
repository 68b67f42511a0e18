package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Clipboard:
// - Copy hands the text to the platform writer
// - A platform without a clipboard utility yields ErrUnavailable and never writes
// - Writer failures are wrapped
// - New reports availability from the platform flag

type fakeClipboard struct {
	unsupported bool
	written     []string
	err         error
}

func (f *fakeClipboard) copier() *Copier {
	return &Copier{
		unsupported: func() bool { return f.unsupported },
		write: func(text string) error {
			f.written = append(f.written, text)
			return f.err
		},
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()

	fake := &fakeClipboard{}
	c := fake.copier()
	require.True(t, c.Available())
	require.NoError(t, c.Copy("bundle text"))
	assert.Equal(t, []string{"bundle text"}, fake.written)
}

func TestCopy_Unavailable(t *testing.T) {
	t.Parallel()

	fake := &fakeClipboard{unsupported: true}
	c := fake.copier()
	assert.False(t, c.Available())

	err := c.Copy("x")
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Empty(t, fake.written)
}

func TestCopy_WriteFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("exit status 1")
	fake := &fakeClipboard{err: boom}
	err := fake.copier().Copy("x")
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "failed to write clipboard")
}

func TestNew(t *testing.T) {
	t.Parallel()

	c := New()
	require.NotNil(t, c.write)
	require.NotNil(t, c.unsupported)
	assert.Equal(t, c.Available(), !c.unsupported())
}
