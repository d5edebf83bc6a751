package storage

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strings"

	"github.com/binarylab/asset-service/internal/upload"
)

// suffixLength is the length of the random suffix appended to every object
// key. 64^6 possible values make a collision negligible at this system's
// volume; uniqueness is probabilistic, not checked against existing keys.
const suffixLength = 6

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// Gateway derives collision-resistant object keys for validated uploads,
// writes them through an ObjectStore, and composes retrieval URLs. It is
// constructed once at startup and injected wherever uploads happen.
type Gateway struct {
	store         ObjectStore
	bucket        string
	endpoint      string // host[:port], as configured
	useSSL        bool
	namespace     string
	defaultFolder string
}

// NewGateway creates a Gateway over store. namespace is the top-level key
// prefix; defaultFolder is used when neither the caller nor the file's MIME
// type yields a folder.
func NewGateway(store ObjectStore, bucket, endpoint string, useSSL bool, namespace, defaultFolder string) *Gateway {
	return &Gateway{
		store:         store,
		bucket:        bucket,
		endpoint:      endpoint,
		useSSL:        useSSL,
		namespace:     namespace,
		defaultFolder: defaultFolder,
	}
}

// Put uploads one validated file and returns its retrieval URL. folder may be
// empty, in which case the file's top-level MIME segment is used.
func (g *Gateway) Put(ctx context.Context, f *upload.IncomingFile, folder string) (string, error) {
	if err := g.ensureBucket(ctx); err != nil {
		return "", err
	}
	return g.put(ctx, f, folder)
}

// PutMany uploads files in input order and returns their URLs. It fails fast
// on the first error; files uploaded before the failing one are not rolled
// back.
func (g *Gateway) PutMany(ctx context.Context, files []*upload.IncomingFile, folder string) ([]string, error) {
	if err := g.ensureBucket(ctx); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := g.put(ctx, f, folder)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Delete removes the object a stored URL points at. Deleting an already
// absent object succeeds.
func (g *Gateway) Delete(ctx context.Context, ref string) error {
	key := g.keyFromRef(ref)
	if err := g.store.Remove(ctx, g.bucket, key); err != nil {
		log.Printf("storage: delete %q failed: %v", ref, err)
		return &DeleteError{Ref: ref, Err: err}
	}
	return nil
}

// DeleteMany removes each referenced object in order, failing on the first
// error.
func (g *Gateway) DeleteMany(ctx context.Context, refs []string) error {
	for _, ref := range refs {
		if err := g.Delete(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// Replace uploads newFiles and, only after every upload has succeeded,
// deletes oldRefs. A failed delete is logged and swallowed: the new objects
// are valid, and surfacing the failure would roll back an otherwise
// successful update. The superseded object becomes an acceptable orphan.
func (g *Gateway) Replace(ctx context.Context, oldRefs []string, newFiles []*upload.IncomingFile, folder string) ([]string, error) {
	urls, err := g.PutMany(ctx, newFiles, folder)
	if err != nil {
		return nil, err
	}

	for _, ref := range oldRefs {
		if err := g.Delete(ctx, ref); err != nil {
			log.Printf("storage: replace left stale object behind: %v", err)
		}
	}
	return urls, nil
}

func (g *Gateway) ensureBucket(ctx context.Context) error {
	if err := g.store.EnsureBucket(ctx, g.bucket); err != nil {
		log.Printf("storage: ensure bucket %q failed: %v", g.bucket, err)
		return &BucketError{Bucket: g.bucket, Err: err}
	}
	return nil
}

func (g *Gateway) put(ctx context.Context, f *upload.IncomingFile, folder string) (string, error) {
	key := g.objectKey(f, folder)
	meta := ObjectMeta{
		ContentType:        f.MimeType,
		ContentDisposition: "inline",
		CacheControl:       "public, max-age=31536000",
	}
	if err := g.store.Put(ctx, g.bucket, key, f.Content, meta); err != nil {
		log.Printf("storage: upload %q failed: %v", f.OriginalName, err)
		return "", &UploadError{Name: f.OriginalName, Err: err}
	}
	return g.urlFor(key), nil
}

// objectKey derives "<namespace>/<folder>/<stem>-<rand6>[.<ext>]". The random
// suffix is generated per file, so identical filenames never collide within a
// request or across concurrent requests.
func (g *Gateway) objectKey(f *upload.IncomingFile, folder string) string {
	if folder == "" {
		folder = mimeFolder(f.MimeType)
	}
	if folder == "" {
		folder = g.defaultFolder
	}

	stem, ext := splitName(f.OriginalName)
	name := stem + "-" + randomSuffix(suffixLength)
	if ext != "" {
		name += "." + ext
	}
	return g.namespace + "/" + folder + "/" + name
}

func (g *Gateway) urlFor(key string) string {
	scheme := "http"
	if g.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, g.endpoint, g.bucket, key)
}

// keyFromRef recovers the object key from a stored URL by stripping
// everything up to and including the "<bucket>/" segment. A ref without that
// segment is treated as a bare key.
func (g *Gateway) keyFromRef(ref string) string {
	marker := g.bucket + "/"
	if i := strings.Index(ref, marker); i >= 0 {
		return ref[i+len(marker):]
	}
	return ref
}

// mimeFolder returns the top-level MIME segment, e.g. "image" for "image/png".
func mimeFolder(mimeType string) string {
	base, _, found := strings.Cut(mimeType, "/")
	if !found {
		return ""
	}
	return base
}

// splitName splits a filename into stem and extension at the last dot.
// Names without an extension, and dotfiles like ".env", keep the whole name
// as the stem.
func splitName(name string) (stem, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		if name == "" {
			return "file", ""
		}
		return name, ""
	}
	return name[:i], name[i+1:]
}

// randomSuffix returns n characters drawn from a url-safe alphabet using
// crypto/rand.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
