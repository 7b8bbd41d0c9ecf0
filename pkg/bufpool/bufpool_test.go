package bufpool

import (
	"bytes"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	t.Run("CopiesSmallPayload", func(t *testing.T) {
		src := []byte("hello, pool")
		var dst bytes.Buffer

		n, err := Copy(&dst, bytes.NewReader(src))
		require.NoError(t, err)
		assert.Equal(t, int64(len(src)), n)
		assert.Equal(t, src, dst.Bytes())
	})

	t.Run("CopiesPayloadLargerThanBuffer", func(t *testing.T) {
		src := make([]byte, 3*CopySize+17)
		_, err := rand.Read(src)
		require.NoError(t, err)
		var dst bytes.Buffer

		n, err := Copy(&dst, bytes.NewReader(src))
		require.NoError(t, err)
		assert.Equal(t, int64(len(src)), n)
		assert.Equal(t, src, dst.Bytes())
	})

	t.Run("EmptySource", func(t *testing.T) {
		var dst bytes.Buffer
		n, err := Copy(&dst, bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStream(t *testing.T) {
	src := make([]byte, StreamSize+1024)
	_, err := rand.Read(src)
	require.NoError(t, err)
	var dst bytes.Buffer

	n, err := Stream(&dst, bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)
	assert.True(t, bytes.Equal(src, dst.Bytes()))
}

func TestConcurrentCopies(t *testing.T) {
	const workers = 16
	payload := make([]byte, CopySize/2)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				var dst bytes.Buffer
				n, err := Copy(&dst, bytes.NewReader(payload))
				assert.NoError(t, err)
				assert.Equal(t, int64(len(payload)), n)
			}
		}()
	}
	wg.Wait()
}
