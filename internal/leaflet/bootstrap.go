package leaflet

import (
	"fmt"
	"strings"

	"github.com/joeblew999/plat-osm/internal/config"
)

// CanvasID is the element the map is created in. Pages without it get no map.
const CanvasID = "openstreetmap-canvas"

// Global is the browser-side handle scripts use to reach the map.
const Global = "OSMMap"

// Bootstrap returns the script that creates the map for a variant.
//
// It defines window.OSMMap with a ready queue, so overlay scripts that
// arrive before the map exists are run once it does. The canvas is cleared
// first; calling create twice replaces the previous map.
func Bootstrap(v config.Variant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "(function(){\n")
	fmt.Fprintf(&b, "var M=window.%s=window.%s||{map:null,queue:[]};\n", Global, Global)
	fmt.Fprintf(&b, "M.ready=function(fn){if(M.map){fn(M.map);}else{M.queue.push(fn);}};\n")
	fmt.Fprintf(&b, "M.create=function(){\n")
	fmt.Fprintf(&b, "var canvas=document.getElementById(%s);\n", str(CanvasID))
	fmt.Fprintf(&b, "if(!canvas||typeof L===\"undefined\"){return;}\n")
	fmt.Fprintf(&b, "if(M.map){M.map.remove();}\n")
	fmt.Fprintf(&b, "canvas.innerHTML=\"\";\n")
	fmt.Fprintf(&b, "var osm=L.tileLayer(%s,{maxZoom:%d,attribution:%s});\n", str(v.TileURLTemplate), v.MaxZoom, str(v.Attribution))
	fmt.Fprintf(&b, "var map=L.map(canvas,{layers:osm,tap:false});\n")
	fmt.Fprintf(&b, "L.control.scale({imperial:false}).addTo(map);\n")
	fmt.Fprintf(&b, "M.map=map;\n")
	fmt.Fprintf(&b, "var q=M.queue;M.queue=[];q.forEach(function(fn){fn(map);});\n")
	fmt.Fprintf(&b, "};\n")
	fmt.Fprintf(&b, "if(document.readyState===\"loading\"){document.addEventListener(\"DOMContentLoaded\",M.create);}else{M.create();}\n")
	fmt.Fprintf(&b, "})();\n")

	return b.String()
}

// Ready wraps an overlay script so it runs against the map once created.
func Ready(s *Script) string {
	return fmt.Sprintf("window.%s.ready(%s);", Global, s.Func())
}
