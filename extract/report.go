package extract

import (
	"fmt"
	"path"

	"github.com/gosimple/slug"

	"fmfc/config"
	"fmfc/fmf"
)

// storeReport puts readable dumps of the result and every decoded document
// into debug report. Names carry run identifier and entry position so
// entries which slugify to the same name do not collide.
func storeReport(rpt *config.Report, run string, data *fmf.Data) {
	if rpt == nil {
		return
	}
	dir := path.Join("extract", run)
	rpt.StoreData(path.Join(dir, "summary.txt"), []byte(data.String()))
	for i, name := range data.DocumentNames() {
		rpt.StoreData(path.Join(dir, "documents", reportName(i, name)), []byte(data.Documents[name].String()))
	}
}

func reportName(i int, entry string) string {
	s := slug.Make(entry)
	if len(s) == 0 {
		s = "entry"
	}
	return fmt.Sprintf("%04d-%s.txt", i, s)
}
