package ghosttag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bodgit/ghosttag/pixel"
)

const scanWorkers = 4

// Found is an image in which a message was found
type Found struct {
	Path    string
	Message []byte
}

type found struct {
	mu      sync.Mutex
	results []Found
}

func (f *found) add(path string, message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, Found{Path: path, Message: message})
}

func (gt *GhostTag) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Only lossless images can still hold a message
			if !info.Mode().IsRegular() || !pixel.Lossless(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (gt *GhostTag) extractWorker(ctx context.Context, in <-chan string, results *found) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			g, _, err := gt.load(file)
			if err != nil {
				gt.logger.Printf("Skipping \"%s\": %v\n", file, err)
				continue
			}

			e, err := extract(g, gt.seed)
			if err != nil {
				gt.logger.Printf("No message in \"%s\": %v\n", file, err)
				continue
			}

			message, err := unpack(e.message)
			if err != nil {
				gt.logger.Printf("No message in \"%s\": %v\n", file, err)
				continue
			}
			results.add(file, message)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan tries to extract a message from every lossless image below path and
// returns those where one was found, ordered by path
func (gt *GhostTag) Scan(path string) ([]Found, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := gt.findImages(ctx, dir)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	results := new(found)
	for i := 0; i < scanWorkers; i++ {
		errc, err := gt.extractWorker(ctx, files, results)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	sort.Slice(results.results, func(i, j int) bool {
		return results.results[i].Path < results.results[j].Path
	})

	return results.results, nil
}
