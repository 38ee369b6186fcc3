// Package sheetsign converts spreadsheets to PDF and stamps a signature
// block onto the first two pages.
//
// # Quick Start
//
// Put the workbook and the two images in a Store, then run a Signer:
//
//	store := sheetsign.NewMemoryStore()
//	_ = store.Put(ctx, "report.xlsx", xlsx, "")
//	_ = store.Put(ctx, "signature.png", sig, "image/png")
//	_ = store.Put(ctx, "line.png", line, "image/png")
//
//	signer, err := sheetsign.NewSigner(store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer signer.Close()
//
//	res, err := signer.Run(ctx, sheetsign.Input{XLSXKey: "report.xlsx"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// res.OutputKey == "signed_report.xlsx.pdf"
//
// # Pipeline
//
//  1. Fetch the spreadsheet, signature and blank-line images from the Store
//  2. Convert the spreadsheet to PDF (LibreOffice, or headless Chrome)
//  3. Extract the text of pages 1 and 2 and locate the "Signature:" and
//     "Date:" markers, falling back to fixed template positions
//  4. Render one overlay per page and merge it on top of that page
//  5. Keep at most Layout.PageCap pages, store the result, push a Record
//
// # Marker Positions
//
// Marker positions are approximations. A marker on extracted line i is
// assumed to sit at y = PageHeight - (i+1)*LinePitch, x = MarkerX. This
// matches one template; see Layout for every constant involved.
//
// # Storage
//
// Store implementations: MemoryStore, FileStore (a directory) and
// RedisStore. Dataset implementations: JSONLDataset, WriterDataset,
// SQLDataset (SQLite or PostgreSQL) and RedisDataset.
package sheetsign
