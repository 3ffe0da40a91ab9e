package vmix

import (
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// avatarURLPattern matches "<...>.<W>x<H>.<ext>", the avatar file-URL
// format of spec.md §6.
var avatarURLPattern = regexp.MustCompile(`\.(\d+)x(\d+)\.([A-Za-z0-9]+)$`)

// ParseAvatarURL extracts the encoded width/height/extension from an
// avatar URL. Returns InvalidArgument if the filename doesn't match the
// "<...>.<W>x<H>.<ext>" convention.
func ParseAvatarURL(url string) (w, h int, ext string, err error) {
	m := avatarURLPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, 0, "", newError(InvalidArgument, "parse_avatar_url", url, nil)
	}
	w, _ = strconv.Atoi(m[1])
	h, _ = strconv.Atoi(m[2])
	return w, h, m[3], nil
}

// rawI420Size is the exact byte length a raw planar I420 file must have
// for dimensions w x h.
func rawI420Size(w, h int) int {
	return (w*h*3 + 1) / 2
}

// avatarCacheEntry is a URL-keyed decoded frame shared by every index that
// points at the same URL, evicted once no index references it.
type avatarCacheEntry struct {
	frame    *FrameRef
	refCount int
}

// AvatarStore holds a static fallback image per input index, used when an
// InputSlot is inactive or disconnected. URL-backed entries are
// deduplicated by URL via a content cache; in-memory overrides bypass the
// cache and take precedence on read.
type AvatarStore struct {
	mu       sync.Mutex
	decoder  ImageDecoder
	logger   zerolog.Logger
	byURL    map[string]*avatarCacheEntry
	indexURL map[int]string    // index -> URL, for entries backed by set(index, url)
	override map[int]*FrameRef // index -> in-memory frame, for set(index, bytes)
}

// NewAvatarStore creates an empty AvatarStore.
func NewAvatarStore(decoder ImageDecoder, logger zerolog.Logger) *AvatarStore {
	if decoder == nil {
		decoder = NewImageDecoder()
	}
	return &AvatarStore{
		decoder:  decoder,
		logger:   logger,
		byURL:    make(map[string]*avatarCacheEntry),
		indexURL: make(map[int]string),
		override: make(map[int]*FrameRef),
	}
}

// Set assigns a file-URL-backed avatar to index, per the raw-planar-I420
// ingestion path (spec.md §4.2a): "<...>.<W>x<H>.<ext>" where the file
// contents are exactly (W*H*3+1)/2 bytes of raw I420 planes.
func (a *AvatarStore) Set(index int, url string) error {
	w, h, _, err := ParseAvatarURL(url)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(url)
	if err != nil {
		return newError(DecodeFailure, "set_avatar", url, err)
	}
	want := rawI420Size(w, h)
	if len(data) != want {
		return newError(DecodeFailure, "set_avatar", url, nil)
	}

	buf := NewI420Buffer(w, h)
	ySize := w * h
	cw, ch := chromaExtent(w, h)
	cSize := cw * ch
	copy(buf.Y, data[:ySize])
	copy(buf.U, data[ySize:ySize+cSize])
	copy(buf.V, data[ySize+cSize:ySize+2*cSize])

	a.mu.Lock()
	defer a.mu.Unlock()
	a.unsetLocked(index)

	entry, ok := a.byURL[url]
	if !ok {
		entry = &avatarCacheEntry{frame: newFrameRef(buf, func(*I420Buffer) {})}
		a.byURL[url] = entry
	}
	entry.refCount++
	a.indexURL[index] = url
	return nil
}

// SetBytes assigns an in-memory encoded image (e.g. PNG) as index's
// avatar, decoded via the store's ImageDecoder. In-memory overrides take
// precedence over URL-backed entries on read.
func (a *AvatarStore) SetBytes(index int, encoded []byte) error {
	decoded, err := a.decoder.Decode(encoded)
	if err != nil {
		a.logger.Warn().Int("input", index).Err(err).Msg("avatar image decode failed")
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.override[index]; ok {
		prev.Release()
	}
	a.override[index] = newFrameRef(decoded.I420Buffer, func(*I420Buffer) {})
	return nil
}

// Unset removes any avatar (URL-backed or in-memory) assigned to index.
func (a *AvatarStore) Unset(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unsetLocked(index)
	if prev, ok := a.override[index]; ok {
		prev.Release()
		delete(a.override, index)
	}
}

func (a *AvatarStore) unsetLocked(index int) {
	url, ok := a.indexURL[index]
	if !ok {
		return
	}
	delete(a.indexURL, index)
	entry := a.byURL[url]
	if entry == nil {
		return
	}
	entry.refCount--
	if entry.refCount <= 0 {
		entry.frame.Release()
		delete(a.byURL, url)
	}
}

// Get returns a retained reference to index's avatar frame, preferring an
// in-memory override over a URL-backed entry, or false if none is set.
func (a *AvatarStore) Get(index int) (*FrameRef, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ref, ok := a.override[index]; ok {
		return ref.Retain(), true
	}
	url, ok := a.indexURL[index]
	if !ok {
		return nil, false
	}
	entry, ok := a.byURL[url]
	if !ok {
		return nil, false
	}
	return entry.frame.Retain(), true
}
